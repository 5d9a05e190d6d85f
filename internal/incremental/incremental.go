package incremental

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/econcal/internal/event"
	"github.com/pfrederiksen/econcal/internal/logger"
	"github.com/pfrederiksen/econcal/internal/metrics"
	"github.com/pfrederiksen/econcal/internal/scraper"
	"github.com/pfrederiksen/econcal/internal/storage"
)

// Fetcher loads the calendar rows of one unit. *scraper.Session satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, req scraper.Request) (*scraper.Page, error)
}

// Options configures an Orchestrator
type Options struct {
	Mode     string // config.ModeDay or config.ModeMonth
	Location *time.Location
}

// Summary reports what a run did
type Summary struct {
	Units             int // units attempted
	FailedUnits       int
	RowsFetched       int
	RowsAdded         int
	DetailsBackfilled int
	RowsSkipped       int
	NoOp              bool
}

// Orchestrator runs incremental scrapes against one store
type Orchestrator struct {
	store   *storage.Storage
	fetcher Fetcher
	metrics *metrics.Metrics
	opts    Options
}

// New creates an Orchestrator. m may be nil.
func New(store *storage.Storage, fetcher Fetcher, m *metrics.Metrics, opts Options) *Orchestrator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if m == nil {
		m = metrics.New()
	}
	return &Orchestrator{
		store:   store,
		fetcher: fetcher,
		metrics: m,
		opts:    opts,
	}
}

// Run fetches the part of [from, to] the store does not cover yet. Each unit is
// fetched, merged and persisted before the next starts. A unit that fails to
// fetch is logged and counted but does not stop the run; a failed write does.
// Cancellation is checked between units, so a cancelled run keeps every unit
// committed so far.
func (o *Orchestrator) Run(ctx context.Context, from, to time.Time) (*Summary, error) {
	summary := &Summary{}

	if err := o.store.EnsureHeader(); err != nil {
		return summary, err
	}

	last, ok := o.store.LastTimestamp()
	window := ComputeWindow(last, ok, from, to, o.opts.Location)
	if window.NoOp {
		summary.NoOp = true
		fields := logger.Fields{
			"from": from.Format(dateLayout),
			"to":   to.Format(dateLayout),
		}
		if ok {
			fields["last_timestamp"] = event.FormatTimestamp(last)
			o.metrics.SetLastTimestamp(last.Unix())
		}
		logger.Info("Store already covers requested range", fields)
		return summary, nil
	}

	table := o.store.ReadAll()
	known := detailIndex(table)

	units := Plan(window.Start, window.End, o.opts.Mode)
	logger.Info("Starting scrape", logger.Fields{
		"start": window.Start.Format(dateLayout),
		"end":   window.End.Format(dateLayout),
		"units": len(units),
		"mode":  o.opts.Mode,
	})

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Units++

		page, err := o.fetcher.Fetch(ctx, scraper.Request{
			Start: unit.Start,
			End:   unit.End,
			KnownDetail: func(k event.Key) bool {
				return known[k]
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.FailedUnits++
			o.metrics.ObserveUnit(metrics.ResultFailed, 0, 0, 0)
			logger.Warn("Fetch unit failed", logger.Fields{"unit": unit.String()}, err)
			continue
		}

		rows := event.Normalize(page.Rows)
		skipped := len(page.Skipped)
		summary.RowsFetched += len(rows)
		summary.RowsSkipped += skipped

		if len(rows) == 0 {
			o.metrics.ObserveUnit(metrics.ResultEmpty, 0, 0, skipped)
			logger.Info("Fetch unit returned no rows", logger.Fields{
				"unit":         unit.String(),
				"rows_skipped": skipped,
			})
			continue
		}

		result := event.Merge(table, rows)
		if err := o.store.WriteAll(result.Events); err != nil {
			logger.Error("Could not persist unit", logger.Fields{
				"unit": unit.String(),
				"path": o.store.Path(),
			}, err)
			return summary, fmt.Errorf("persisting unit %s: %w", unit, err)
		}
		table = result.Events
		known = detailIndex(table)

		summary.RowsAdded += result.Added
		summary.DetailsBackfilled += result.Backfilled
		o.metrics.ObserveUnit(metrics.ResultOK, result.Added, result.Backfilled, skipped)

		logger.Info("Fetch unit stored", logger.Fields{
			"unit":               unit.String(),
			"rows_fetched":       len(rows),
			"rows_added":         result.Added,
			"details_backfilled": result.Backfilled,
			"rows_skipped":       skipped,
		})
	}

	if last, ok := o.store.LastTimestamp(); ok {
		o.metrics.SetLastTimestamp(last.Unix())
	}

	logger.Info("Scrape complete", logger.Fields{
		"units":              summary.Units,
		"failed_units":       summary.FailedUnits,
		"rows_fetched":       summary.RowsFetched,
		"rows_added":         summary.RowsAdded,
		"details_backfilled": summary.DetailsBackfilled,
		"rows_skipped":       summary.RowsSkipped,
	})

	return summary, nil
}

// detailIndex returns the keys of events that already carry a Detail
func detailIndex(events []*event.Event) map[event.Key]bool {
	known := make(map[event.Key]bool, len(events))
	for _, evt := range events {
		if evt.HasDetail() {
			known[evt.Key()] = true
		}
	}
	return known
}
