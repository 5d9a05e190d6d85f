// Package cli implements the command-line interface for econcal.
//
// The cli package provides the Cobra-based CLI with commands to scrape the economic
// calendar into the CSV store (resuming after the latest stored event), show stored
// events with filtering, sorting and text/JSON/table output, and export them to
// iCalendar or SQLite. It coordinates the config, scraper, incremental, storage and
// export packages.
package cli
