package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess      = "success"
	outcomeRejected     = "rejected"
	outcomeStale        = "stale"
	outcomeUnauthorized = "unauthorized"
	outcomeError        = "error"
)

// Metrics are the pipeline's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	refreshes       *prometheus.CounterVec
	replays         *prometheus.CounterVec
	waiters         prometheus.Gauge
	refreshDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telco_console",
			Name:      "refresh_total",
			Help:      "Refresh cycles by outcome (success, rejected, stale).",
		}, []string{"outcome"}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telco_console",
			Name:      "replay_total",
			Help:      "Requests replayed after a 401 by outcome (success, unauthorized, error).",
		}, []string{"outcome"}),
		waiters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "telco_console",
			Name:      "refresh_waiters",
			Help:      "Requests currently waiting on an in-flight refresh.",
		}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "telco_console",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent calling the refresh endpoint.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.refreshes, m.replays, m.waiters, m.refreshDuration)
	return m
}

func (m *Metrics) observeRefresh(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
	m.refreshDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeReplay(outcome string) {
	if m == nil {
		return
	}
	m.replays.WithLabelValues(outcome).Inc()
}

func (m *Metrics) waiting(delta float64) {
	if m == nil {
		return
	}
	m.waiters.Add(delta)
}
