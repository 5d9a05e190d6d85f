// Package event provides types and functions for economic calendar event records.
//
// The event package handles record representation, identity, and reconciliation of
// freshly scraped batches against previously collected data. Two records describe the
// same event when their (DateTime, Currency, Event) fields match after trimming; every
// other field is payload. Merge keeps existing payload untouched and only ever fills a
// Detail that was previously empty.
package event
