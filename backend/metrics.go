package backend

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors a Server reports through.
// Register them once at process start with Metrics.MustRegister; a nil
// Config.Metrics disables instrumentation entirely.
type Metrics struct {
	ConnectionsTotal    prometheus.Counter
	ConnectionsActive   prometheus.Gauge
	AuthFailuresTotal   prometheus.Counter
	QueriesTotal        prometheus.Counter
	QueryErrorsTotal    prometheus.Counter
}

// NewMetrics builds a Metrics with the given namespace, e.g. "pgwire".
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total client connections accepted.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Client connections currently in progress.",
		}),
		AuthFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Connections rejected by the AuthPredicate.",
		}),
		QueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Simple-query Query messages handled.",
		}),
		QueryErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Simple-query Query messages that returned an error to the client.",
		}),
	}
}

// MustRegister registers every collector in m against reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.ConnectionsTotal,
		m.ConnectionsActive,
		m.AuthFailuresTotal,
		m.QueriesTotal,
		m.QueryErrorsTotal,
	)
}
