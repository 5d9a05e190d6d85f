package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/econcal/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate     SortOrder = "date"
	SortByCurrency SortOrder = "currency"
	SortByImpact   SortOrder = "impact"
	SortByEvent    SortOrder = "event"
)

func (s SortOrder) valid() bool {
	switch s {
	case SortByDate, SortByCurrency, SortByImpact, SortByEvent:
		return true
	}
	return false
}

// impactRank orders impact levels from most to least important
var impactRank = map[string]int{
	"high":         0,
	"medium":       1,
	"low":          2,
	"non-economic": 3,
}

// sortEvents sorts a slice of events based on the specified sort order.
// Ties fall back to date order.
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		event.SortByDateTime(events)
	case SortByCurrency:
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].Currency != events[j].Currency {
				return events[i].Currency < events[j].Currency
			}
			return event.Before(events[i], events[j])
		})
	case SortByImpact:
		sort.SliceStable(events, func(i, j int) bool {
			ri, rj := rankImpact(events[i].Impact), rankImpact(events[j].Impact)
			if ri != rj {
				return ri < rj
			}
			return event.Before(events[i], events[j])
		})
	case SortByEvent:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			return event.Before(events[i], events[j])
		})
	}
}

// rankImpact maps an impact label to its rank; unknown labels sort last
func rankImpact(impact string) int {
	if r, ok := impactRank[strings.ToLower(shortImpact(impact))]; ok {
		return r
	}
	return len(impactRank)
}
