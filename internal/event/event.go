package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the on-disk DateTime format: ISO-8601 with a numeric UTC offset.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// Columns is the fixed column order of the record store.
var Columns = []string{"DateTime", "Currency", "Impact", "Event", "Actual", "Forecast", "Previous", "Detail"}

// Event represents one observed economic calendar event
type Event struct {
	DateTime string `json:"date_time"`
	Currency string `json:"currency"`
	Impact   string `json:"impact"`
	Title    string `json:"event"`
	Actual   string `json:"actual"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
	Detail   string `json:"detail"`
}

// Key is the identity of an event. Payload fields are not part of it.
type Key struct {
	DateTime string
	Currency string
	Title    string
}

// String renders the key the way the store's legacy tooling did: fields joined by "_".
func (k Key) String() string {
	return k.DateTime + "_" + k.Currency + "_" + k.Title
}

// ID returns a deterministic identifier for the key
func (k Key) ID() string {
	h := sha1.New()
	h.Write([]byte(k.String()))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewEvent creates an Event stamped at t. Text fields are trimmed.
func NewEvent(t time.Time, currency, impact, title, actual, forecast, previous, detail string) *Event {
	return &Event{
		DateTime: FormatTimestamp(t),
		Currency: strings.TrimSpace(currency),
		Impact:   strings.TrimSpace(impact),
		Title:    strings.TrimSpace(title),
		Actual:   strings.TrimSpace(actual),
		Forecast: strings.TrimSpace(forecast),
		Previous: strings.TrimSpace(previous),
		Detail:   strings.TrimSpace(detail),
	}
}

// FormatTimestamp formats t in the store's DateTime layout, keeping t's own offset.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a stored DateTime value.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(s))
}

// Key returns the trimmed identity key of the event
func (e *Event) Key() Key {
	return Key{
		DateTime: strings.TrimSpace(e.DateTime),
		Currency: strings.TrimSpace(e.Currency),
		Title:    strings.TrimSpace(e.Title),
	}
}

// HasDetail reports whether the event carries a non-blank Detail.
func (e *Event) HasDetail() bool {
	return strings.TrimSpace(e.Detail) != ""
}

// Time parses the event's DateTime.
func (e *Event) Time() (time.Time, error) {
	return ParseTimestamp(e.DateTime)
}

// Row returns the event's fields in Columns order
func (e *Event) Row() []string {
	return []string{e.DateTime, e.Currency, e.Impact, e.Title, e.Actual, e.Forecast, e.Previous, e.Detail}
}

// FromRow builds an Event from values in Columns order. Short rows leave the
// remaining fields empty.
func FromRow(row []string) *Event {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return &Event{
		DateTime: strings.TrimSpace(get(0)),
		Currency: get(1),
		Impact:   get(2),
		Title:    get(3),
		Actual:   get(4),
		Forecast: get(5),
		Previous: get(6),
		Detail:   get(7),
	}
}
