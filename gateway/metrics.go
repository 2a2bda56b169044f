package gateway

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "dashboard_gateway"

// Metrics counts gateway activity. A nil *Metrics records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	teardowns prometheus.Counter
}

// NewMetrics creates the gateway collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Backend calls made through the gateway by method and result.",
		}, []string{"method", "result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "token_refreshes_total",
			Help:      "Access token refresh attempts by result.",
		}, []string{"result"}),
		teardowns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "session_teardowns_total",
			Help:      "Sessions cleared after an irrecoverable auth failure.",
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.refreshes, m.teardowns} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) request(method, result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, result).Inc()
}

func (m *Metrics) refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) teardown() {
	if m == nil {
		return
	}
	m.teardowns.Inc()
}
