package event

import (
	"testing"
	"time"
)

func TestRawRowEvent(t *testing.T) {
	tehran := time.FixedZone("+0330", 3*3600+1800)
	row := RawRow{
		Day:       time.Date(2025, 1, 5, 0, 0, 0, 0, tehran),
		TimeLabel: "4:30pm",
		Currency:  "USD",
		Impact:    "High Impact Expected",
		Title:     "Core CPI m/m",
		Actual:    "0.2%",
		Forecast:  "0.3%",
		Previous:  "0.3%",
		Details: Details{
			{Name: "Source", Description: "Bureau of\nLabor Statistics"},
		},
	}

	evt := row.Event()

	if evt.DateTime != "2025-01-05T16:30:00+03:30" {
		t.Errorf("DateTime = %q", evt.DateTime)
	}
	if evt.Detail != "Source: Bureau of Labor Statistics" {
		t.Errorf("Detail = %q", evt.Detail)
	}
	if row.Key() != evt.Key() {
		t.Errorf("Key() = %v, want %v", row.Key(), evt.Key())
	}
}

func TestNormalize(t *testing.T) {
	day := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := []RawRow{
		{Day: day, TimeLabel: "All Day", Currency: "JPY", Title: "Bank Holiday"},
		{Day: day, TimeLabel: "1:00am", Currency: "AUD", Title: "Retail Sales m/m"},
	}

	events := Normalize(rows)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Title != "Bank Holiday" || events[0].DateTime != "2025-01-05T23:59:59+00:00" {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[1].DateTime != "2025-01-05T01:00:00+00:00" {
		t.Errorf("unexpected second event %+v", events[1])
	}
}
