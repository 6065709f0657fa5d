package runtime

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/TechXTT/wikidb/internal/plugin"
)

const metricsNamespace = "wikidb"

// Metrics exports session lifecycle counters and pool statistics.
// It implements plugin.Hooks; attach it with Engine.Use.
type Metrics struct {
	acquired prometheus.Counter
	released prometheus.Counter
	failed   prometheus.Counter
	active   prometheus.Gauge
	held     prometheus.Histogram
}

var _ plugin.Hooks = (*Metrics)(nil)

// NewMetrics registers the session collectors and a pool statistics
// collector for db with reg.
func NewMetrics(reg prometheus.Registerer, db *sql.DB) (*Metrics, error) {
	m := &Metrics{
		acquired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_acquired_total",
			Help:      "Sessions checked out of the pool.",
		}),
		released: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_released_total",
			Help:      "Sessions returned to the pool.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "session_acquire_failures_total",
			Help:      "Session acquisitions that could not obtain a connection.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held.",
		}),
		held: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "session_held_seconds",
			Help:      "Time between session acquisition and release.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	cs := []prometheus.Collector{m.acquired, m.released, m.failed, m.active, m.held}
	if db != nil {
		cs = append(cs, collectors.NewDBStatsCollector(db, metricsNamespace))
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) AfterAcquire(_ context.Context, _ plugin.SessionEvent) {
	m.acquired.Inc()
	m.active.Inc()
}

func (m *Metrics) AfterRelease(_ context.Context, ev plugin.SessionEvent) {
	m.released.Inc()
	m.active.Dec()
	m.held.Observe(ev.Held.Seconds())
}

func (m *Metrics) AcquireFailed(_ context.Context, _ error) {
	m.failed.Inc()
}
