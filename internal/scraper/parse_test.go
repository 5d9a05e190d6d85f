package scraper

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pfrederiksen/econcal/internal/event"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return data
}

func TestParseCalendar(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Tehran")
	start := time.Date(2025, 1, 5, 0, 0, 0, 0, loc)
	end := time.Date(2025, 1, 6, 0, 0, 0, 0, loc)

	results, err := ParseCalendar(strings.NewReader(string(loadFixture(t, "calendar.html"))), start, end)
	if err != nil {
		t.Fatalf("ParseCalendar failed: %v", err)
	}

	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(results))
	}

	jan5 := time.Date(2025, 1, 5, 0, 0, 0, 0, loc)
	jan6 := time.Date(2025, 1, 6, 0, 0, 0, 0, loc)

	want := []*event.RawRow{
		{Day: jan5, TimeLabel: "12:30am", Currency: "JPY", Impact: "Low Impact Expected", Title: "Household Spending y/y", Actual: "1.2%", Forecast: "1.0%", Previous: "0.8%"},
		{Day: jan5, TimeLabel: "12:30am", Currency: "JPY", Impact: "High Impact Expected", Title: "BOJ Gov Ueda Speaks"},
		nil,
		{Day: jan6, TimeLabel: "All Day", Currency: "EUR", Impact: "Non-Economic", Title: "French Bank Holiday"},
		nil,
		nil,
		nil,
	}
	reasons := []string{"", "", "no event", "", "missing cell previous", "empty event name", "outside unit window"}
	ids := []string{"101", "102", "", "103", "", "", ""}

	for i, res := range results {
		if reasons[i] != "" {
			if !res.Skipped() {
				t.Errorf("result %d: expected skip %q, got row %+v", i, reasons[i], res.Row)
				continue
			}
			if res.Reason != reasons[i] {
				t.Errorf("result %d: expected reason %q, got %q", i, reasons[i], res.Reason)
			}
			continue
		}

		if res.Skipped() {
			t.Errorf("result %d: unexpected skip %q", i, res.Reason)
			continue
		}
		if diff := cmp.Diff(want[i], res.Row, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
			t.Errorf("result %d mismatch (-want +got):\n%s", i, diff)
		}
		if res.EventID != ids[i] {
			t.Errorf("result %d: expected event id %q, got %q", i, ids[i], res.EventID)
		}
	}
}

func TestParseCalendarNoTable(t *testing.T) {
	page := `<html><body><h1>Just a moment...</h1></body></html>`
	now := time.Now()

	_, err := ParseCalendar(strings.NewReader(page), now, now)
	if !errors.Is(err, ErrNoCalendar) {
		t.Errorf("expected ErrNoCalendar, got %v", err)
	}
}

func TestParseCalendarDateCell(t *testing.T) {
	page := `<table class="calendar__table">
<tr class="calendar__row calendar__row--new-day">
  <td class="calendar__cell calendar__date">Wed <span>Jan 8</span></td>
  <td class="calendar__cell calendar__time">1:30pm</td>
  <td class="calendar__cell calendar__currency">USD</td>
  <td class="calendar__cell calendar__impact"><span title="High Impact Expected"></span></td>
  <td class="calendar__cell calendar__event">FOMC Meeting Minutes</td>
  <td class="calendar__cell calendar__actual"></td>
  <td class="calendar__cell calendar__forecast"></td>
  <td class="calendar__cell calendar__previous"></td>
</tr>
</table>`
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	results, err := ParseCalendar(strings.NewReader(page), start, end)
	if err != nil {
		t.Fatalf("ParseCalendar failed: %v", err)
	}
	if len(results) != 1 || results[0].Skipped() {
		t.Fatalf("expected one row, got %+v", results)
	}
	if got := results[0].Row.Day; !got.Equal(time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected row on Jan 8, got %v", got)
	}
}

func TestParseDayBreaker(t *testing.T) {
	ref := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		text   string
		want   time.Time
		wantOK bool
	}{
		{"Fri Dec 20", time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC), true},
		{"Mon DEC 23", time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC), true},
		{"Thu Jan 2", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"Today", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := parseDayBreaker(tt.text, ref)
			if ok != tt.wantOK {
				t.Fatalf("parseDayBreaker(%q) ok = %v, expected %v", tt.text, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseDayBreaker(%q) = %v, expected %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseDetails(t *testing.T) {
	details, err := ParseDetails(strings.NewReader(string(loadFixture(t, "detail.html"))))
	if err != nil {
		t.Fatalf("ParseDetails failed: %v", err)
	}

	want := "Source: Statistics Bureau | " +
		"Measures: Change in the inflation-adjusted value of all expenditures made by households; | " +
		"Usual Effect: 'Actual' greater than 'Forecast' is good for currency;"
	if got := details.Encode(); got != want {
		t.Errorf("Encode() = %q\nexpected %q", got, want)
	}
}

func TestParseDetailsEmpty(t *testing.T) {
	details, err := ParseDetails(strings.NewReader(`<div class="calendardetails"></div>`))
	if err != nil {
		t.Fatalf("ParseDetails failed: %v", err)
	}
	if len(details) != 0 {
		t.Errorf("expected no specs, got %v", details)
	}
}

func TestRequestQuery(t *testing.T) {
	d := func(y int, m time.Month, day int) time.Time {
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  string
	}{
		{"single day", d(2025, 1, 5), d(2025, 1, 5), "day=jan5.2025"},
		{"whole month", d(2025, 2, 1), d(2025, 2, 28), "month=feb.2025"},
		{"partial month", d(2025, 1, 6), d(2025, 1, 31), "range=jan6.2025-jan31.2025"},
		{"across years", d(2024, 12, 20), d(2024, 12, 30), "range=dec20.2024-dec30.2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Request{Start: tt.start, End: tt.end}.Query()
			if got != tt.want {
				t.Errorf("Query() = %q, expected %q", got, tt.want)
			}
		})
	}
}
