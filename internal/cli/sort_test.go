package cli

import (
	"testing"

	"github.com/pfrederiksen/econcal/internal/event"
)

func sortFixture() []*event.Event {
	return []*event.Event{
		{DateTime: "2025-01-06T11:30:00+03:30", Currency: "EUR", Impact: "Low Impact Expected", Title: "retail sales m/m"},
		{DateTime: "2025-01-05T17:00:00+03:30", Currency: "USD", Impact: "High Impact Expected", Title: "CPI m/m"},
		{DateTime: "2025-01-05T09:00:00+03:30", Currency: "EUR", Impact: "Medium Impact Expected", Title: "German ZEW"},
		{DateTime: "2025-01-06T23:59:59+03:30", Currency: "JPY", Impact: "Non-Economic", Title: "Bank Holiday"},
	}
}

func titles(events []*event.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Title)
	}
	return out
}

func TestSortEvents(t *testing.T) {
	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortByDate, []string{"German ZEW", "CPI m/m", "retail sales m/m", "Bank Holiday"}},
		{SortByCurrency, []string{"German ZEW", "retail sales m/m", "Bank Holiday", "CPI m/m"}},
		{SortByImpact, []string{"CPI m/m", "German ZEW", "retail sales m/m", "Bank Holiday"}},
		{SortByEvent, []string{"Bank Holiday", "CPI m/m", "German ZEW", "retail sales m/m"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			events := sortFixture()
			sortEvents(events, tt.order)

			got := titles(events)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("sortEvents(%s) = %v, want %v", tt.order, got, tt.want)
				}
			}
		})
	}
}

func TestSortOrderValid(t *testing.T) {
	for _, s := range []SortOrder{SortByDate, SortByCurrency, SortByImpact, SortByEvent} {
		if !s.valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if SortOrder("state").valid() {
		t.Error("unknown sort order should be invalid")
	}
}

func TestRankImpact(t *testing.T) {
	if rankImpact("High Impact Expected") >= rankImpact("Low Impact Expected") {
		t.Error("high impact should rank before low impact")
	}
	if rankImpact("") != len(impactRank) {
		t.Error("empty impact should rank last")
	}
}
