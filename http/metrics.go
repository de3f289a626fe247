package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics holds the collectors a Client reports to when created with
// WithMetrics.
type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minigun",
				Name:      "requests_total",
				Help:      "Completed requests by method and status code",
			},
			[]string{"method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "minigun",
				Name:      "request_duration_seconds",
				Help:      "Time from sending a request until the response was assembled",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minigun",
				Name:      "request_errors_total",
				Help:      "Failed requests by method and error kind",
			},
			[]string{"method", "kind"},
		),
	}

	var err error
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.failures, err = register(reg, m.failures); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing the collector already registered under the
// same name so several clients can share one registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *clientMetrics) observe(method Method, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method.String(), strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method.String()).Observe(elapsed.Seconds())
}

func (m *clientMetrics) fail(method Method, kind ErrorKind) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(method.String(), kind.String()).Inc()
}
