package model

import "time"

// EventDuration is the fixed length of every event; the markup carries no
// explicit end time.
const EventDuration = time.Hour

// TypeAll is the type-filter wildcard. It is never a real record's type.
const TypeAll = "all"

// EventRecord is one calendar entry read from the page markup (or an
// external feed). Records are built once at load and never mutated.
type EventRecord struct {
	ID    string
	Title string
	Type  string

	// Date is the start time. It is only meaningful when DateKnown is true;
	// records whose date could not be parsed keep the zero value.
	Date      time.Time
	DateKnown bool

	Description string
	Location    string

	// Position is the record's index in load order and breaks sort ties.
	Position int

	// Source is "markup" or the feed ID the record came from.
	Source string
}

// EndDate returns the derived end time (start + EventDuration).
func (r EventRecord) EndDate() time.Time {
	return r.Date.Add(EventDuration)
}
