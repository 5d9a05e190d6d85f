// Package filter narrows stored calendar events for display and export.
//
// Criteria combine with AND; values within one criterion combine with OR:
//   - Date window (from/to, inclusive)
//   - Currencies (exact, case-insensitive)
//   - Impacts (substring, case-insensitive, so "high" matches "High Impact Expected")
//   - Search terms (substring of the event name, case-insensitive)
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Currencies = []string{"USD", "EUR"}
//	f.Impacts = []string{"high"}
//	filtered := f.Apply(events)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/econcal/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	Currencies []string `json:"currencies,omitempty"`
	Impacts    []string `json:"impacts,omitempty"`
	Search     []string `json:"search,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Currencies: []string{},
		Impacts:    []string{},
		Search:     []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Currencies) == 0 &&
		len(f.Impacts) == 0 &&
		len(f.Search) == 0
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events. Events whose DateTime does not parse
// are not excluded by the date window.
func (f *Filter) Matches(evt *event.Event) bool {
	if f.IsEmpty() {
		return true
	}

	if f.DateFrom != nil || f.DateTo != nil {
		if t, err := evt.Time(); err == nil {
			if f.DateFrom != nil && t.Before(*f.DateFrom) {
				return false
			}
			if f.DateTo != nil && t.After(*f.DateTo) {
				return false
			}
		}
	}

	if len(f.Currencies) > 0 && !anyMatch(f.Currencies, func(c string) bool {
		return strings.EqualFold(strings.TrimSpace(evt.Currency), c)
	}) {
		return false
	}

	if len(f.Impacts) > 0 && !anyMatch(f.Impacts, containsFold(evt.Impact)) {
		return false
	}

	if len(f.Search) > 0 && !anyMatch(f.Search, containsFold(evt.Title)) {
		return false
	}

	return true
}

func anyMatch(values []string, match func(string) bool) bool {
	for _, v := range values {
		if match(strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

func containsFold(s string) func(string) bool {
	lower := strings.ToLower(s)
	return func(sub string) bool {
		return strings.Contains(lower, strings.ToLower(sub))
	}
}

// Apply applies the filter to a list of events and returns only matching events.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(events []*event.Event) []*event.Event {
	if f.IsEmpty() {
		return events
	}

	var filtered []*event.Event
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Jan 2, 2025 | To: Jan 15, 2025 | Currencies: USD, EUR"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}

	if len(f.Currencies) > 0 {
		parts = append(parts, fmt.Sprintf("Currencies: %s", strings.Join(f.Currencies, ", ")))
	}

	if len(f.Impacts) > 0 {
		parts = append(parts, fmt.Sprintf("Impacts: %s", strings.Join(f.Impacts, ", ")))
	}

	if len(f.Search) > 0 {
		parts = append(parts, fmt.Sprintf("Search: %s", strings.Join(f.Search, ", ")))
	}

	return strings.Join(parts, " | ")
}
