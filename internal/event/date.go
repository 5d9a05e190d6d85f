package event

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(am|pm)`)

// ResolveTime turns a calendar time label into a timestamp on day.
//
// Rules, checked in order against the lower-cased label:
//   - contains "day" ("All Day"): 23:59:59
//   - contains "data" ("No Data"): 00:00:01
//   - "H:MMam" / "H:MMpm": 12-hour clock converted to 24-hour
//
// Any other label returns day unchanged. ResolveTime never fails.
func ResolveTime(label string, day time.Time) time.Time {
	lower := strings.ToLower(strings.TrimSpace(label))

	if strings.Contains(lower, "day") {
		return atClock(day, 23, 59, 59)
	}
	if strings.Contains(lower, "data") {
		return atClock(day, 0, 0, 1)
	}

	m := clockPattern.FindStringSubmatch(lower)
	if m == nil {
		return day
	}

	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if m[3] == "pm" && hh < 12 {
		hh += 12
	}
	if m[3] == "am" && hh == 12 {
		hh = 0
	}

	// time.Date would roll "25:00am" into the next day
	if hh > 23 || mm > 59 {
		return day
	}
	return atClock(day, hh, mm, 0)
}

func atClock(day time.Time, hh, mm, ss int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, ss, 0, day.Location())
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SortByDateTime orders events by DateTime ascending. Values that parse are compared
// as instants; anything else falls back to string order. The sort is stable, so
// equal timestamps keep their insertion order.
func SortByDateTime(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return Before(events[i], events[j])
	})
}

// Before reports whether a sorts before b by DateTime
func Before(a, b *Event) bool {
	ta, errA := a.Time()
	tb, errB := b.Time()
	if errA == nil && errB == nil {
		return ta.Before(tb)
	}
	return strings.TrimSpace(a.DateTime) < strings.TrimSpace(b.DateTime)
}
