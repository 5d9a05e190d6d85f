// Package incremental drives resumable scrape runs: it works out which days the
// store is still missing, fetches them one unit at a time and persists after
// every unit.
package incremental

import (
	"time"

	"github.com/pfrederiksen/econcal/internal/config"
	"github.com/pfrederiksen/econcal/internal/event"
)

const dateLayout = "2006-01-02"

// Unit is one fetch unit: the inclusive calendar days [Start, End]
type Unit struct {
	Start time.Time
	End   time.Time
}

func (u Unit) String() string {
	if u.Start.Equal(u.End) {
		return u.Start.Format(dateLayout)
	}
	return u.Start.Format(dateLayout) + ".." + u.End.Format(dateLayout)
}

// Window is the inclusive day range a run still has to fetch
type Window struct {
	Start time.Time
	End   time.Time
	NoOp  bool // the store already covers the requested range
}

// ComputeWindow works out the effective fetch window for a requested
// [from, to] range given the store's high-water mark. Dates are calendar days
// in loc.
//
// With no high-water mark the whole range is fetched. A mark at or after to
// means there is nothing to do. Otherwise fetching resumes on the day after the
// mark, but never before from.
func ComputeWindow(last time.Time, ok bool, from, to time.Time, loc *time.Location) Window {
	from = event.StartOfDay(from, loc)
	to = event.StartOfDay(to, loc)

	w := Window{Start: from, End: to}
	if ok {
		if !last.Before(to) {
			return Window{NoOp: true}
		}
		resume := event.StartOfDay(last, loc).AddDate(0, 0, 1)
		if resume.After(w.Start) {
			w.Start = resume
		}
	}
	if w.Start.After(w.End) {
		return Window{NoOp: true}
	}
	return w
}

// Plan splits [start, end] into fetch units in chronological order. Day mode
// yields one unit per day; month mode one unit per calendar month, clipped to
// the window.
func Plan(start, end time.Time, mode string) []Unit {
	loc := start.Location()
	start = event.StartOfDay(start, loc)
	end = event.StartOfDay(end, loc)

	var units []Unit
	if end.Before(start) {
		return units
	}

	if mode == config.ModeMonth {
		for cur := start; !cur.After(end); {
			monthEnd := time.Date(cur.Year(), cur.Month()+1, 0, 0, 0, 0, 0, loc)
			if monthEnd.After(end) {
				monthEnd = end
			}
			units = append(units, Unit{Start: cur, End: monthEnd})
			cur = monthEnd.AddDate(0, 0, 1)
		}
		return units
	}

	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		units = append(units, Unit{Start: cur, End: cur})
	}
	return units
}
