package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(context.Context) (Stats, error) {
	r.calls.Add(1)
	return Stats{}, r.err
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(&countingRefresher{}, "not a schedule", time.UTC)
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_Runs(t *testing.T) {
	r := &countingRefresher{err: errors.New("ignored")}
	s := NewScheduler(r, "@every 1s", time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestScheduler_SkipsAfterCancel(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(r, "@hourly", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.run(ctx)
	assert.Zero(t, r.calls.Load())

	s.run(context.Background())
	assert.Equal(t, int32(1), r.calls.Load())
}
