// Package calendar renders stored events as an iCalendar (RFC 5545) feed.
package calendar

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfrederiksen/econcal/internal/event"
)

const (
	prodID    = "-//econcal//econcal//EN"
	uidDomain = "econcal"

	// maxLineOctets is the longest content line before folding
	maxLineOctets = 75
)

// GenerateICS generates an iCalendar file with one VEVENT per event. Events
// whose DateTime does not parse are left out. Returns "" when nothing remains.
// name becomes X-WR-CALNAME when set; stamp is used for DTSTAMP.
func GenerateICS(events []*event.Event, name string, stamp time.Time) string {
	var body strings.Builder
	count := 0
	for _, evt := range events {
		if writeEvent(&body, evt, stamp) {
			count++
		}
	}
	if count == 0 {
		return ""
	}

	var ics strings.Builder
	writeLine(&ics, "BEGIN:VCALENDAR")
	writeLine(&ics, "VERSION:2.0")
	writeLine(&ics, "PRODID:"+prodID)
	writeLine(&ics, "CALSCALE:GREGORIAN")
	writeLine(&ics, "METHOD:PUBLISH")
	if name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(name))
	}
	ics.WriteString(body.String())
	writeLine(&ics, "END:VCALENDAR")

	return ics.String()
}

func writeEvent(ics *strings.Builder, evt *event.Event, stamp time.Time) bool {
	start, err := evt.Time()
	if err != nil {
		return false
	}

	writeLine(ics, "BEGIN:VEVENT")

	// UID is stable across exports so calendar apps update rather than duplicate
	writeLine(ics, fmt.Sprintf("UID:%s@%s", evt.Key().ID(), uidDomain))
	writeLine(ics, "DTSTAMP:"+formatICSTime(stamp))
	writeLine(ics, "DTSTART:"+formatICSTime(start))

	summary := strings.TrimSpace(evt.Currency + " " + evt.Title)
	writeLine(ics, "SUMMARY:"+escapeICS(summary))
	writeLine(ics, "DESCRIPTION:"+escapeICS(description(evt)))
	if evt.Currency != "" {
		writeLine(ics, "CATEGORIES:"+escapeICS(evt.Currency))
	}

	writeLine(ics, "STATUS:CONFIRMED")
	writeLine(ics, "TRANSP:TRANSPARENT")
	writeLine(ics, "END:VEVENT")
	return true
}

func description(evt *event.Event) string {
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("Impact", evt.Impact)
	add("Actual", evt.Actual)
	add("Forecast", evt.Forecast)
	add("Previous", evt.Previous)

	d := strings.Join(lines, "\n")
	if evt.Detail != "" {
		if d != "" {
			d += "\n\n"
		}
		d += evt.Detail
	}
	return d
}

// writeLine writes one content line, folding it at 75 octets without
// splitting a UTF-8 sequence.
func writeLine(ics *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines carry a leading space
		limit = maxLineOctets - 1
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
