package scraper

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/econcal/internal/event"
)

// ErrNoCalendar is returned when a page loads but holds no calendar table,
// typically a challenge or error page.
var ErrNoCalendar = errors.New("no calendar table on page")

// RowResult is the outcome of extracting one calendar row. Exactly one of Row
// and Reason is set.
type RowResult struct {
	Row     *event.RawRow
	EventID string // site identifier used to load the detail panel
	Reason  string // why the row was skipped
}

// Skipped reports whether the row was skipped
func (r RowResult) Skipped() bool {
	return r.Row == nil
}

var cellClasses = []struct {
	name  string
	class string
}{
	{"time", "calendar__time"},
	{"currency", "calendar__currency"},
	{"impact", "calendar__impact"},
	{"event", "calendar__event"},
	{"actual", "calendar__actual"},
	{"forecast", "calendar__forecast"},
	{"previous", "calendar__previous"},
}

// ParseCalendar extracts rows from a rendered calendar page covering the
// inclusive days [start, end]. Day-breaker rows move the current day forward;
// rows before the first breaker belong to start.
func ParseCalendar(r io.Reader, start, end time.Time) ([]RowResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	table := doc.Find(`table[class*="calendar__table"]`)
	if table.Length() == 0 {
		return nil, ErrNoCalendar
	}

	loc := start.Location()
	first := event.StartOfDay(start, loc)
	last := event.StartOfDay(end, loc)

	results := make([]RowResult, 0)
	current := first
	lastLabel := ""

	table.Find(`tr[class*="calendar__row"]`).Each(func(i int, row *goquery.Selection) {
		class := row.AttrOr("class", "")

		if strings.Contains(class, "day-breaker") {
			if day, ok := parseDayBreaker(collapse(row.Text()), first); ok {
				current = day
				lastLabel = ""
			}
			return
		}

		// Newer markup puts the date in the first row of each day instead of a breaker row
		if dateCell := row.Find(`td[class*="calendar__date"]`); dateCell.Length() > 0 {
			if text := collapse(dateCell.Text()); text != "" {
				if day, ok := parseDayBreaker(text, first); ok {
					current = day
					lastLabel = ""
				}
			}
		}

		if strings.Contains(class, "no-event") {
			results = append(results, RowResult{Reason: "no event"})
			return
		}
		if current.Before(first) || current.After(last) {
			results = append(results, RowResult{Reason: "outside unit window"})
			return
		}

		cells := make(map[string]*goquery.Selection, len(cellClasses))
		for _, c := range cellClasses {
			cell := row.Find(`td[class*="` + c.class + `"]`).First()
			if cell.Length() == 0 {
				results = append(results, RowResult{Reason: "missing cell " + c.name})
				return
			}
			cells[c.name] = cell
		}

		label := collapse(cells["time"].Text())
		if label == "" {
			label = lastLabel
		}
		lastLabel = label

		raw := &event.RawRow{
			Day:       current,
			TimeLabel: label,
			Currency:  collapse(cells["currency"].Text()),
			Impact:    impactText(cells["impact"]),
			Title:     collapse(cells["event"].Text()),
			Actual:    collapse(cells["actual"].Text()),
			Forecast:  collapse(cells["forecast"].Text()),
			Previous:  collapse(cells["previous"].Text()),
		}
		if raw.Title == "" {
			results = append(results, RowResult{Reason: "empty event name"})
			return
		}

		id := row.AttrOr("data-event-id", row.AttrOr("data-eventid", ""))
		results = append(results, RowResult{Row: raw, EventID: id})
	})

	return results, nil
}

// impactText prefers the title of the impact icon and falls back to the cell text.
func impactText(cell *goquery.Selection) string {
	if span := cell.Find("span").First(); span.Length() > 0 {
		return strings.TrimSpace(span.AttrOr("title", ""))
	}
	return collapse(cell.Text())
}

var breakerPattern = regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s*(\d{1,2})`)

// parseDayBreaker reads a day label such as "Sun Jan 5". The site omits the
// year, so it is taken from ref; a date that would fall before ref belongs to
// the following year (a range spanning New Year).
func parseDayBreaker(text string, ref time.Time) (time.Time, bool) {
	m := breakerPattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	// month names match case-insensitively
	parsed, err := time.Parse("Jan 2", m[1]+" "+m[2])
	if err != nil {
		return time.Time{}, false
	}

	day := time.Date(ref.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, ref.Location())
	if day.Before(ref) {
		day = day.AddDate(1, 0, 0)
	}
	return day, true
}

// ParseDetails extracts the name/description pairs of a detail panel. When the
// panel holds several spec tables the last one is used.
func ParseDetails(r io.Reader) (event.Details, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing detail HTML: %w", err)
	}

	tables := doc.Find("table.calendarspecs")
	if tables.Length() == 0 {
		return nil, nil
	}

	var details event.Details
	tables.Last().Find("tr").Each(func(i int, tr *goquery.Selection) {
		tds := tr.ChildrenFiltered("td")
		if tds.Length() < 2 {
			return
		}
		details.Set(strings.TrimSpace(tds.Eq(0).Text()), strings.TrimSpace(tds.Eq(1).Text()))
	})

	return details, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
