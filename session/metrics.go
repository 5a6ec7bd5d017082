package session

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "auth_client"

// Operation outcome labels.
const (
	outcomeSuccess    = "success"
	outcomeFailure    = "failure"
	outcomeRejected   = "rejected"
	outcomeSuperseded = "superseded"
)

// Metrics records session manager activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations    *prometheus.CounterVec
	authenticated prometheus.Gauge
	storeFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "session_operations_total",
			Help:      "Session operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		authenticated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "session_authenticated",
			Help:      "1 while the session is authenticated.",
		}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "token_store_failures_total",
			Help:      "Secure token store failures by action.",
		}, []string{"action"}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.authenticated, m.storeFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) storeFailure(action string) {
	if m == nil {
		return
	}
	m.storeFailures.WithLabelValues(action).Inc()
}

func (m *Metrics) track(s State) {
	if m == nil {
		return
	}
	if s.IsAuthenticated() {
		m.authenticated.Set(1)
		return
	}
	m.authenticated.Set(0)
}
