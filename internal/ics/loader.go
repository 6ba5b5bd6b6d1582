package ics

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	appLog "evsearch/internal/log"
	"evsearch/internal/model"
)

// ErrAllSourcesFailed is returned by Loader.Events when no configured
// source produced a calendar.
var ErrAllSourcesFailed = errors.New("ics: all sources failed")

// Loader turns a set of ICS subscriptions into searchable events:
// fetch, parse, expand within the horizon, then collapse occurrences.
type Loader struct {
	Fetcher  *Fetcher
	Sources  []Source
	Location *time.Location
	Horizon  time.Duration
	Backfill time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Events returns one event per (source, UID) that has at least one
// occurrence inside [now-Backfill, now+Horizon].
func (l *Loader) Events(ctx context.Context) ([]model.Event, error) {
	if len(l.Sources) == 0 {
		return nil, nil
	}

	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	loc := l.Location
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	results, fetchErrs := l.Fetcher.FetchAll(ctx, l.Sources)
	if len(results) == 0 && len(fetchErrs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(fetchErrs...))
	}

	var parsed []ParsedEvent
	parsedSources := 0
	for _, res := range results {
		events, err := ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("ics parse failed", err, "id", res.Source.ID, "url", redactURL(res.Source.URL))
			continue
		}
		parsedSources++
		parsed = append(parsed, events...)
	}
	if parsedSources == 0 {
		return nil, ErrAllSourcesFailed
	}

	expanded, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      now.Add(-l.Backfill),
		RangeEnd:        now.Add(l.Horizon),
	})
	if err != nil {
		return nil, err
	}

	events := Collapse(expanded.Occurrences, now)
	appLog.Info("ics events loaded",
		"sources", len(l.Sources),
		"failed", len(fetchErrs),
		"vevents", len(parsed),
		"occurrences", len(expanded.Occurrences),
		"events", len(events),
	)
	return events, nil
}

// Collapse folds occurrences into one Event per (source, UID). The event
// carries the first occurrence that has not ended by now, or the last one
// when all of them are over. Events are ordered by that start time.
func Collapse(occs []model.Occurrence, now time.Time) []model.Event {
	type key struct{ source, uid string }
	byKey := make(map[key]*model.Event)
	var order []key

	for _, occ := range occs {
		k := key{occ.SourceID, occ.UID}
		ev, ok := byKey[k]
		if !ok {
			ev = &model.Event{SourceID: occ.SourceID, UID: occ.UID}
			byKey[k] = ev
			order = append(order, k)
		}
		ev.Occurrences++
		if ev.Occurrences == 1 || better(occ, ev, now) {
			ev.Summary = occ.Summary
			ev.Description = occ.Description
			ev.Location = occ.Location
			ev.AllDay = occ.AllDay
			ev.Start = occ.Start
			ev.End = occ.End
		}
	}

	out := make([]model.Event, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	slices.SortStableFunc(out, func(a, b model.Event) int {
		return cmp.Compare(a.Start.UnixNano(), b.Start.UnixNano())
	})
	return out
}

// better reports whether occ should replace the occurrence held by cur.
func better(occ model.Occurrence, cur *model.Event, now time.Time) bool {
	occLive := !occ.End.Before(now)
	curLive := !cur.End.Before(now)
	switch {
	case occLive && !curLive:
		return true
	case !occLive && curLive:
		return false
	case occLive:
		return occ.Start.Before(cur.Start)
	default:
		return occ.Start.After(cur.Start)
	}
}
