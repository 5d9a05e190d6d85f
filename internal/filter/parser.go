package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	rangePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s*\.\.\s*(\d{4}-\d{2}-\d{2})$`)
	monthPattern = regexp.MustCompile(`(?i)^(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|september|oct|october|nov|november|dec|december)\.?\s*(\d{4})$`)
)

// ParseDateRange parses a date range argument into its first and last day.
//
// Supported formats:
//   - "2025-01-05" - a single day
//   - "2025-01-01..2025-01-10" - an inclusive range of days
//   - "jan.2025" or "January 2025" - an entire month
//
// Dates are interpreted in loc. The start is at 00:00:00 and the end at
// 23:59:59 of the last day.
func ParseDateRange(input string, loc *time.Location) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	if matches := rangePattern.FindStringSubmatch(input); matches != nil {
		from, err := ParseDate(matches[1], loc)
		if err != nil {
			return nil, nil, err
		}
		last, err := ParseDate(matches[2], loc)
		if err != nil {
			return nil, nil, err
		}
		if last.Before(from) {
			return nil, nil, fmt.Errorf("start date must be before end date")
		}
		to := EndOfDay(last)
		return &from, &to, nil
	}

	if matches := monthPattern.FindStringSubmatch(input); matches != nil {
		month := parseMonth(matches[1])
		if month == 0 {
			return nil, nil, fmt.Errorf("invalid month: %s", matches[1])
		}
		year, err := strconv.Atoi(matches[2])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid year: %s", matches[2])
		}

		from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		// day 0 of the next month is the last day of this one
		to := time.Date(year, month+1, 0, 23, 59, 59, 0, loc)
		return &from, &to, nil
	}

	day, err := ParseDate(input, loc)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid date range format. Use '2025-01-05', '2025-01-01..2025-01-10', or 'jan.2025'")
	}
	to := EndOfDay(day)
	return &day, &to, nil
}

// ParseDate parses a YYYY-MM-DD day in loc
func ParseDate(input string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(input), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", input)
	}
	return t, nil
}

// EndOfDay returns 23:59:59 on t's day
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// parseMonth converts a month name to time.Month
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))

	months := map[string]time.Month{
		"jan": time.January, "january": time.January,
		"feb": time.February, "february": time.February,
		"mar": time.March, "march": time.March,
		"apr": time.April, "april": time.April,
		"may": time.May,
		"jun": time.June, "june": time.June,
		"jul": time.July, "july": time.July,
		"aug": time.August, "august": time.August,
		"sep": time.September, "september": time.September,
		"oct": time.October, "october": time.October,
		"nov": time.November, "november": time.November,
		"dec": time.December, "december": time.December,
	}

	return months[name]
}
