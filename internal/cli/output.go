package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pfrederiksen/econcal/internal/event"
	"github.com/pfrederiksen/econcal/internal/incremental"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
)

// OutputResult contains data to be output
type OutputResult struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Filter      string         `json:"filter"`
	Events      []*event.Event `json:"events"`
	EventCount  int            `json:"event_count"`
}

// ScrapeResult reports a finished scrape run
type ScrapeResult struct {
	Store   string               `json:"store"`
	From    string               `json:"from"`
	To      string               `json:"to"`
	Summary *incremental.Summary `json:"summary"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	case FormatTable:
		return writeTable(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, evt := range result.Events {
		fmt.Fprintf(w, "%s  %-3s  %s", displayTime(evt), evt.Currency, evt.Title)
		if impact := shortImpact(evt.Impact); impact != "" {
			fmt.Fprintf(w, " [%s]", impact)
		}
		fmt.Fprintln(w)

		if values := figures(evt); values != "" {
			fmt.Fprintf(w, "     %s\n", values)
		}
		if verbose && evt.Detail != "" {
			fmt.Fprintf(w, "     Detail: %s\n", evt.Detail)
		}
	}

	if result.Filter != "" && result.Filter != "No active filters" {
		fmt.Fprintf(w, "\nFilter: %s", result.Filter)
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", result.EventCount)

	return nil
}

// writeTable renders results as a rounded table
func writeTable(w io.Writer, result *OutputResult, verbose bool) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)

	header := table.Row{"Time", "Cur", "Impact", "Event", "Actual", "Forecast", "Previous"}
	if verbose {
		header = append(header, "Detail")
	}
	t.AppendHeader(header)

	for _, evt := range result.Events {
		row := table.Row{
			displayTime(evt),
			evt.Currency,
			shortImpact(evt.Impact),
			evt.Title,
			evt.Actual,
			evt.Forecast,
			evt.Previous,
		}
		if verbose {
			row = append(row, evt.Detail)
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"Total", result.EventCount})

	t.Render()
	return nil
}

// writeSummary reports a scrape run
func writeSummary(w io.Writer, result *ScrapeResult, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, result)
	}

	s := result.Summary
	if s.NoOp {
		fmt.Fprintf(w, "Store already covers %s..%s, nothing to fetch.\n", result.From, result.To)
		return nil
	}

	fmt.Fprintf(w, "Scraped %s..%s into %s\n", result.From, result.To, result.Store)
	fmt.Fprintf(w, "  Units:              %d (%d failed)\n", s.Units, s.FailedUnits)
	fmt.Fprintf(w, "  Rows fetched:       %d\n", s.RowsFetched)
	fmt.Fprintf(w, "  Rows added:         %d\n", s.RowsAdded)
	fmt.Fprintf(w, "  Details backfilled: %d\n", s.DetailsBackfilled)
	fmt.Fprintf(w, "  Rows skipped:       %d\n", s.RowsSkipped)
	return nil
}

// displayTime shortens a stored DateTime for display. The resolver's markers
// for all-day and no-time events are shown as such.
func displayTime(evt *event.Event) string {
	t, err := evt.Time()
	if err != nil {
		return evt.DateTime
	}
	switch {
	case t.Hour() == 23 && t.Minute() == 59 && t.Second() == 59:
		return t.Format("2006-01-02") + " all day"
	case t.Hour() == 0 && t.Minute() == 0 && t.Second() == 1:
		return t.Format("2006-01-02") + " --:--  "
	}
	return t.Format("2006-01-02 15:04") + "   "
}

// shortImpact turns "High Impact Expected" into "High"
func shortImpact(impact string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(impact), "Impact Expected"))
}

func figures(evt *event.Event) string {
	var parts []string
	if evt.Actual != "" {
		parts = append(parts, "Actual: "+evt.Actual)
	}
	if evt.Forecast != "" {
		parts = append(parts, "Forecast: "+evt.Forecast)
	}
	if evt.Previous != "" {
		parts = append(parts, "Previous: "+evt.Previous)
	}
	return strings.Join(parts, "  ")
}
