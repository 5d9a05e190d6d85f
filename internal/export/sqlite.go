// Package export writes stored events into a SQLite database for ad-hoc
// querying. Exporting into an existing database follows the store's merge
// rules: known events are kept and only an empty detail is filled.
package export

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/pfrederiksen/econcal/internal/event"
)

//go:embed schema.sql
var Schema string

const upsert = `insert into events (date_time, currency, impact, event, actual, forecast, previous, detail)
values (?, ?, ?, ?, ?, ?, ?, ?)
on conflict (date_time, currency, event) do update set detail = excluded.detail
where trim(events.detail) = '' and trim(excluded.detail) != ''`

// WriteSQLite exports events into the SQLite database at path, creating the
// events table when needed. It returns the number of rows inserted or updated.
func WriteSQLite(ctx context.Context, path string, events []*event.Event) (int64, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	return Write(ctx, db, events)
}

// Write exports events into db inside a single transaction
func Write(ctx context.Context, db *sql.DB, events []*event.Event) (int64, error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return 0, fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var changed int64
	for _, evt := range events {
		key := evt.Key()
		res, err := stmt.ExecContext(ctx,
			key.DateTime,
			key.Currency,
			strings.TrimSpace(evt.Impact),
			key.Title,
			strings.TrimSpace(evt.Actual),
			strings.TrimSpace(evt.Forecast),
			strings.TrimSpace(evt.Previous),
			strings.TrimSpace(evt.Detail),
		)
		if err != nil {
			return changed, fmt.Errorf("inserting %s: %w", key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return changed, fmt.Errorf("counting rows: %w", err)
		}
		changed += n
	}

	if err := tx.Commit(); err != nil {
		return changed, fmt.Errorf("committing export: %w", err)
	}
	return changed, nil
}
