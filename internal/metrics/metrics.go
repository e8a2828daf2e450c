package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records stocktake activity for the /metrics endpoint.
type Metrics struct {
	registry      *prometheus.Registry
	logins        *prometheus.CounterVec
	tablesCreated prometheus.Counter
	tablesDeleted prometheus.Counter
	recordUpdates prometheus.Counter
	exports       *prometheus.CounterVec
}

// New registers the stocktake collectors on a fresh registry.
func New(portal string) *Metrics {
	reg := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"portal": portal}

	m := &Metrics{
		registry: reg,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "stocktake_login_attempts_total",
			Help:        "Login attempts by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		tablesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "stocktake_tables_created_total",
			Help:        "Stocktake tables created.",
			ConstLabels: constLabels,
		}),
		tablesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "stocktake_tables_deleted_total",
			Help:        "Stocktake tables deleted.",
			ConstLabels: constLabels,
		}),
		recordUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "stocktake_record_updates_total",
			Help:        "Stocktake record edits saved.",
			ConstLabels: constLabels,
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "stocktake_exports_total",
			Help:        "Exports served by format.",
			ConstLabels: constLabels,
		}, []string{"format"}),
	}
	reg.MustRegister(m.logins, m.tablesCreated, m.tablesDeleted, m.recordUpdates, m.exports)
	return m
}

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TableCreated() {
	if m == nil {
		return
	}
	m.tablesCreated.Inc()
}

func (m *Metrics) TableDeleted() {
	if m == nil {
		return
	}
	m.tablesDeleted.Inc()
}

func (m *Metrics) RecordUpdated() {
	if m == nil {
		return
	}
	m.recordUpdates.Inc()
}

func (m *Metrics) Exported(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
