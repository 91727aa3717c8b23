package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"maitred/internal/models"
)

// Pull outcomes
const (
	OutcomeApplied   = "applied"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
)

// Metrics collects the POS counters on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	startAt  time.Time

	pulls          *prometheus.CounterVec
	pullDuration   prometheus.Histogram
	coalesced      prometheus.Counter
	dropped        *prometheus.CounterVec
	pushes         *prometheus.CounterVec
	settlements    prometheus.Counter
	settledAmount  prometheus.Counter
	notifyFailures prometheus.Counter
	tables         *prometheus.GaugeVec
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		startAt:  time.Now(),
		pulls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_sync_pulls_total",
				Help: "Table snapshot pulls by outcome",
			},
			[]string{"outcome"},
		),
		pullDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "maitred_sync_pull_duration_seconds",
				Help:    "Time taken to fetch a table snapshot",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
		),
		coalesced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "maitred_sync_coalesced_total",
				Help: "Refresh requests folded into a pull already in flight",
			},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_dropped_entries_total",
				Help: "Malformed remote entries skipped while parsing",
			},
			[]string{"kind"},
		),
		pushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_push_requests_total",
				Help: "Outbound table requests by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		settlements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "maitred_settlements_total",
				Help: "Tables settled",
			},
		),
		settledAmount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "maitred_settled_amount_total",
				Help: "Sum of settled receipt totals in minor currency units",
			},
		),
		notifyFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "maitred_settlement_notify_failures_total",
				Help: "Settlement notifications the backend rejected",
			},
		),
		tables: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "maitred_tables",
				Help: "Tables per derived status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.pulls,
		m.pullDuration,
		m.coalesced,
		m.dropped,
		m.pushes,
		m.settlements,
		m.settledAmount,
		m.notifyFailures,
		m.tables,
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Uptime returns how long the collector has existed
func (m *Metrics) Uptime() time.Duration {
	if m == nil {
		return 0
	}
	return time.Since(m.startAt)
}

// RecordPull records a finished pull and how long its fetch took
func (m *Metrics) RecordPull(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.pulls.WithLabelValues(outcome).Inc()
	if outcome != OutcomeDiscarded {
		m.pullDuration.Observe(took.Seconds())
	}
}

// RecordCoalesced counts a refresh request that did not start a new pull
func (m *Metrics) RecordCoalesced() {
	if m == nil {
		return
	}
	m.coalesced.Inc()
}

// RecordDropped counts n skipped entries of the given kind
func (m *Metrics) RecordDropped(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dropped.WithLabelValues(kind).Add(float64(n))
}

// RecordPush records an outbound submit or cancel request
func (m *Metrics) RecordPush(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.pushes.WithLabelValues(op, outcome).Inc()
}

// RecordSettlement records a settled receipt total
func (m *Metrics) RecordSettlement(total int64) {
	if m == nil {
		return
	}
	m.settlements.Inc()
	if total > 0 {
		m.settledAmount.Add(float64(total))
	}
}

// RecordNotifyFailure counts a rejected settlement notification
func (m *Metrics) RecordNotifyFailure() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}

// SetTableCounts replaces the per-status table gauge
func (m *Metrics) SetTableCounts(counts map[models.TableState]int) {
	if m == nil {
		return
	}
	for _, state := range []models.TableState{models.TableEmpty, models.TableOrdered, models.TableReserved} {
		m.tables.WithLabelValues(string(state)).Set(float64(counts[state]))
	}
}
