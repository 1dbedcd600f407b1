package transport

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks client request statistics.
type Metrics struct {
	mu sync.Mutex

	requestsTotal   *prometheus.CounterVec
	failuresTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	registerer prometheus.Registerer
	registered bool
}

// newClientCounterVec creates a new counter vec with the standard cirrus/client namespace.
func newClientCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cirrus",
			Subsystem: "client",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// newClientHistogramVec creates a new histogram vec with the standard cirrus/client namespace.
func newClientHistogramVec(name, help string, buckets []float64, labels []string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cirrus",
			Subsystem: "client",
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

// NewMetrics creates the request metrics collectors.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		registerer:      registerer,
		requestsTotal:   newClientCounterVec("requests_total", "Total number of request attempts issued by the client", []string{"operation", "status"}),
		failuresTotal:   newClientCounterVec("failures_total", "Total number of request attempts that failed before a response arrived", []string{"operation"}),
		requestDuration: newClientHistogramVec("request_duration_seconds", "Duration of individual HTTP exchanges", []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, []string{"method"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *Metrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.failuresTotal,
		m.requestDuration,
	}

	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// ObserveRequest records one request attempt. A zero status with a non-nil
// error means the exchange failed before the service answered.
func (m *Metrics) ObserveRequest(op string, status int, err error) {
	if err != nil {
		m.failuresTotal.WithLabelValues(op).Inc()
		return
	}
	m.requestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
}

// ObserveDuration records the wall time of one HTTP exchange.
func (m *Metrics) ObserveDuration(method string, d time.Duration) {
	m.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}
