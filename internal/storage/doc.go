// Package storage provides CSV-based persistence for economic calendar events.
//
// The store is a single UTF-8, comma-delimited file with the fixed header
// DateTime,Currency,Impact,Event,Actual,Forecast,Previous,Detail. Every write
// rewrites the whole file sorted by DateTime, because filling a missing Detail
// changes rows that are already on disk. Reads are lenient: a missing or
// malformed file reads as an empty table.
package storage
