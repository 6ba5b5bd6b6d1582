package model

import "time"

// Event is one searchable calendar event. Recurring events appear once,
// carrying their next occurrence inside the display horizon.
type Event struct {
	SourceID string // calendar source ID (config ICS ID)
	UID      string // iCalendar UID

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End of the next occurrence, in the display timezone.
	Start time.Time
	End   time.Time

	// Occurrences counts how many instances fall inside the horizon.
	Occurrences int
}

// ID identifies the event across all sources.
func (e Event) ID() string {
	return e.SourceID + "/" + e.UID
}

// Occurrence represents a single concrete instance of an event
// (after recurrence expansion and timezone normalization).
type Occurrence struct {
	SourceID string
	UID      string

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}
