// Package metrics defines the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the engine counters with the registry they live in, so
// the HTTP adapter can expose exactly this set.
type Metrics struct {
	Registry *prometheus.Registry

	Requests      *prometheus.CounterVec
	OracleCalls   *prometheus.CounterVec
	Orders        prometheus.Counter
	Resets        prometheus.Counter
	StaleDiscards prometheus.Counter
}

// New creates and registers the engine metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_requests_total",
				Help: "Total chat requests processed, by flow",
			},
			[]string{"flow"},
		),
		OracleCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_oracle_calls_total",
				Help: "Total decision oracle calls, by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		Orders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "concierge_draft_orders_total",
			Help: "Total draft orders created",
		}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "concierge_session_resets_total",
			Help: "Total explicit session resets",
		}),
		StaleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "concierge_stale_sessions_discarded_total",
			Help: "Total sessions discarded for exceeding the staleness horizon",
		}),
	}
	m.Registry.MustRegister(m.Requests, m.OracleCalls, m.Orders, m.Resets, m.StaleDiscards)
	return m
}
