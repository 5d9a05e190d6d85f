package scraper

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/econcal/internal/event"
)

// Request describes one fetch unit: the inclusive calendar days [Start, End]
// in the calendar's timezone.
type Request struct {
	Start time.Time
	End   time.Time

	// KnownDetail reports whether the store already holds a Detail for an
	// event; those rows skip the detail panel. May be nil.
	KnownDetail func(event.Key) bool
}

// Query returns the calendar query string for the request: a single day,
// a whole month, or an arbitrary range.
func (r Request) Query() string {
	start, end := r.Start, r.End
	if sameDay(start, end) {
		return DayQuery(start)
	}
	if start.Day() == 1 && sameMonth(start, end) && end.AddDate(0, 0, 1).Day() == 1 {
		return MonthQuery(start.Year(), start.Month())
	}
	return RangeQuery(start, end)
}

// DayQuery builds "day=jan5.2025"
func DayQuery(d time.Time) string {
	return "day=" + siteDate(d)
}

// MonthQuery builds "month=jan.2025"
func MonthQuery(year int, month time.Month) string {
	return fmt.Sprintf("month=%s.%d", monthAbbr(month), year)
}

// RangeQuery builds "range=dec20.2024-dec30.2024"
func RangeQuery(start, end time.Time) string {
	return "range=" + siteDate(start) + "-" + siteDate(end)
}

func siteDate(d time.Time) string {
	return fmt.Sprintf("%s%d.%d", monthAbbr(d.Month()), d.Day(), d.Year())
}

func monthAbbr(m time.Month) string {
	return strings.ToLower(m.String()[:3])
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
