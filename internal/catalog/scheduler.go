package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "evsearch/internal/log"
)

// Refresher is the part of Catalog the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) (Stats, error)
}

// Scheduler rebuilds the catalog on a cron schedule. A run that is still
// in progress when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	target Refresher
	spec   string
	cron   *cron.Cron
}

// cronLogger routes robfig/cron's logging through internal/log.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}

// NewScheduler creates a scheduler for a standard 5-field cron spec (or a
// descriptor such as "@hourly") evaluated in loc.
func NewScheduler(target Refresher, spec string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{}
	return &Scheduler{
		target: target,
		spec:   spec,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start registers the refresh job and starts the cron loop. The loop stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	appLog.Info("refresh scheduler started", "schedule", s.spec)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the cron loop and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.target.Refresh(ctx); err != nil {
		appLog.Error("scheduled refresh failed", err, "schedule", s.spec)
	}
}
