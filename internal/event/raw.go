package event

import "time"

// RawRow is one calendar row as extracted from a rendered page, before the
// time label is resolved and the detail panel flattened.
type RawRow struct {
	Day       time.Time // calendar day the row belongs to
	TimeLabel string
	Currency  string
	Impact    string
	Title     string
	Actual    string
	Forecast  string
	Previous  string
	Details   Details
}

// Key returns the identity the row will have once normalized
func (r RawRow) Key() Key {
	return r.Event().Key()
}

// Event normalizes the row into an Event
func (r RawRow) Event() *Event {
	t := ResolveTime(r.TimeLabel, r.Day)
	return NewEvent(t, r.Currency, r.Impact, r.Title, r.Actual, r.Forecast, r.Previous, r.Details.Encode())
}

// Normalize converts raw rows into events, preserving order
func Normalize(rows []RawRow) []*Event {
	events := make([]*Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.Event())
	}
	return events
}
