package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchOne_ConditionalAndFallback(t *testing.T) {
	body := readFixture(t)
	var hits, notModified atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(body)
	}))

	f := NewFetcher(t.TempDir())
	src := Source{ID: "city", URL: srv.URL + "/private/token.ics"}
	ctx := context.Background()

	first, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, body, first.Body)

	second, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, body, second.Body)
	assert.Equal(t, int32(1), notModified.Load())

	srv.Close()
	third, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.True(t, third.FromCache)
	assert.Equal(t, body, third.Body)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchOne_ErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	_, err := f.FetchOne(context.Background(), Source{ID: "x", URL: srv.URL})
	assert.Error(t, err)

	_, err = f.FetchOne(context.Background(), Source{ID: "empty"})
	assert.Error(t, err)
}

func TestFetchAll_KeepsOrderAndCollectsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), WithConcurrency(2), WithHTTPClient(srv.Client()))
	sources := []Source{
		{ID: "a", URL: srv.URL + "/a"},
		{ID: "broken"},
		{ID: "b", URL: srv.URL + "/b"},
		{ID: "c", URL: srv.URL + "/c"},
	}

	results, errs := f.FetchAll(context.Background(), sources)
	require.Len(t, results, 3)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "broken")
	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, id, results[i].Source.ID)
		assert.Equal(t, "/"+id, string(results[i].Body))
	}
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://calendar.example.com/...(redacted)", redactURL("https://calendar.example.com/u/secret.ics?token=abc"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
