// Package metrics tracks scrape run counters in a private Prometheus registry.
//
// Counters are always collected; they are only written out when a textfile path is
// configured, in the format read by node_exporter's textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Unit results
const (
	ResultOK     = "ok"
	ResultEmpty  = "empty"
	ResultFailed = "failed"
)

// Metrics holds the counters for one scrape run
type Metrics struct {
	registry          *prometheus.Registry
	units             *prometheus.CounterVec
	rowsAdded         prometheus.Counter
	detailsBackfilled prometheus.Counter
	rowsSkipped       prometheus.Counter
	lastTimestamp     prometheus.Gauge
}

// New creates a Metrics with its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "econcal_units_total",
			Help: "Fetch units processed, by result.",
		}, []string{"result"}),
		rowsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "econcal_rows_added_total",
			Help: "Events appended to the store.",
		}),
		detailsBackfilled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "econcal_details_backfilled_total",
			Help: "Stored events whose empty Detail was filled.",
		}),
		rowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "econcal_rows_skipped_total",
			Help: "Calendar rows skipped during extraction.",
		}),
		lastTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "econcal_last_timestamp_seconds",
			Help: "Unix time of the latest event in the store.",
		}),
	}
	m.registry.MustRegister(m.units, m.rowsAdded, m.detailsBackfilled, m.rowsSkipped, m.lastTimestamp)
	return m
}

// ObserveUnit records the outcome of one fetch unit
func (m *Metrics) ObserveUnit(result string, added, backfilled, skipped int) {
	m.units.WithLabelValues(result).Inc()
	m.rowsAdded.Add(float64(added))
	m.detailsBackfilled.Add(float64(backfilled))
	m.rowsSkipped.Add(float64(skipped))
}

// SetLastTimestamp records the store's high-water mark as unix seconds
func (m *Metrics) SetLastTimestamp(unix int64) {
	m.lastTimestamp.Set(float64(unix))
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
