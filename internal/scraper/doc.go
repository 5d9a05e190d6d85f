// Package scraper fetches and parses economic calendar pages.
//
// A Session is the handle for one scrape run: it owns the HTTP client and cookie
// jar, paces page loads, and retries failed loads with exponential backoff. Fetch
// loads the calendar page for one unit (a day, a partial month or a full month)
// and extracts its rows, optionally following each row's detail panel. Every row
// yields a RowResult, so rows that could not be extracted are counted rather than
// silently dropped.
package scraper
