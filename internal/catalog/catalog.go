// Package catalog owns the live search index over events. It rebuilds the
// index from an EventSource, answers prefix queries, and resolves result
// IDs back to events.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	appLog "evsearch/internal/log"
	"evsearch/internal/model"
	"evsearch/internal/prefixindex"
)

const (
	refreshKey            = "refresh"
	defaultRefreshTimeout = 2 * time.Minute
)

// ErrNoSource is returned by Refresh when the catalog has no event source.
var ErrNoSource = errors.New("catalog: no event source configured")

// EventSource supplies the full set of searchable events.
type EventSource interface {
	Events(ctx context.Context) ([]model.Event, error)
}

// EventSourceFunc adapts a function to EventSource.
type EventSourceFunc func(ctx context.Context) ([]model.Event, error)

func (f EventSourceFunc) Events(ctx context.Context) ([]model.Event, error) { return f(ctx) }

// Hit is one search result joined with its event.
type Hit struct {
	Word   string
	Record prefixindex.Record
	Event  model.Event
}

// Stats describes the live index.
type Stats struct {
	Words       int       `json:"words"`
	Nodes       int       `json:"nodes"`
	Events      int       `json:"events"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithIndexOptions is applied to every index the catalog builds.
func WithIndexOptions(opts ...prefixindex.Option) Option {
	return func(c *Catalog) { c.indexOpts = append(c.indexOpts, opts...) }
}

// WithLocations controls whether event locations are indexed besides names.
func WithLocations(on bool) Option {
	return func(c *Catalog) { c.indexLocations = on }
}

// WithRefreshTimeout bounds a single rebuild.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Catalog) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

// Catalog pairs the shared prefix index with an id → event table.
type Catalog struct {
	source         EventSource
	indexOpts      []prefixindex.Option
	indexLocations bool
	refreshTimeout time.Duration

	group singleflight.Group

	// mu keeps index and events consistent with each other across a swap.
	mu          sync.RWMutex
	index       *prefixindex.Shared
	events      map[string]model.Event
	refreshedAt time.Time
}

// New creates an empty Catalog. A nil index gets a fresh one.
func New(source EventSource, index *prefixindex.Shared, opts ...Option) *Catalog {
	if index == nil {
		index = prefixindex.NewShared(nil)
	}
	c := &Catalog{
		source:         source,
		index:          index,
		indexLocations: true,
		refreshTimeout: defaultRefreshTimeout,
		events:         map[string]model.Event{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecordOf projects an event onto the fields the index keeps.
func RecordOf(ev model.Event) prefixindex.Record {
	return prefixindex.Record{
		ID:       ev.ID(),
		Name:     ev.Summary,
		Location: ev.Location,
	}
}

// Refresh rebuilds the index from the source and swaps it in. Concurrent
// callers share one rebuild. On error the previous index stays live.
func (c *Catalog) Refresh(ctx context.Context) (Stats, error) {
	if c.source == nil {
		return Stats{}, ErrNoSource
	}

	ch := c.group.DoChan(refreshKey, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return c.rebuild(rctx)
	})

	select {
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Stats{}, res.Err
		}
		return res.Val.(Stats), nil
	}
}

func (c *Catalog) rebuild(ctx context.Context) (Stats, error) {
	started := time.Now()

	events, err := c.source.Events(ctx)
	if err != nil {
		appLog.Error("catalog refresh failed; keeping previous index", err)
		return Stats{}, fmt.Errorf("catalog refresh: %w", err)
	}

	ix := prefixindex.New(c.indexOpts...)
	table := make(map[string]model.Event, len(events))
	for _, ev := range events {
		rec := RecordOf(ev)
		ix.Insert(ev.Summary, rec)
		if c.indexLocations {
			ix.Insert(ev.Location, rec)
		}
		table[rec.ID] = ev
	}

	c.mu.Lock()
	c.index.Swap(ix)
	c.events = table
	c.refreshedAt = time.Now()
	c.mu.Unlock()

	stats := c.Stats()
	appLog.Info("catalog refreshed",
		"events", stats.Events,
		"words", stats.Words,
		"nodes", stats.Nodes,
		"took", time.Since(started).Round(time.Millisecond),
	)
	return stats, nil
}

// Search returns up to limit hits for prefix, in index order.
func (c *Catalog) Search(prefix string, limit int) []Hit {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := c.index.FindWordsWithPrefix(prefix, limit)
	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, Hit{
			Word:   m.Word,
			Record: m.Value,
			Event:  c.events[m.Value.ID],
		})
	}
	return hits
}

// Event looks up an event by ID.
func (c *Catalog) Event(id string) (model.Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ev, ok := c.events[id]
	return ev, ok
}

func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Words:       c.index.Len(),
		Nodes:       c.index.NodeCount(),
		Events:      len(c.events),
		RefreshedAt: c.refreshedAt,
	}
}
