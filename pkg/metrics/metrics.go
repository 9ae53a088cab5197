package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handshake failure reasons.
const (
	ReasonRemoteAddress = "remote_address"
	ReasonHandshake     = "handshake"
	ReasonListener      = "listener"
)

const namespace = "wsgate"

// Metrics holds the gateway collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	negotiations      *prometheus.CounterVec
	fallbacks         *prometheus.CounterVec
	handshakeFailures *prometheus.CounterVec
	activeTransports  *prometheus.GaugeVec
	transportDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry that
// also carries the Go runtime and process collectors.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	m, err := NewWithRegisterer(reg)
	if err != nil {
		return nil, err
	}
	m.registry = reg
	return m, nil
}

// NewWithRegisterer creates the collectors and registers them on r.
func NewWithRegisterer(r prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		negotiations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiations_total",
			Help:      "Total number of negotiated WebSocket upgrades.",
		}, []string{"family", "subprotocol"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiation_fallbacks_total",
			Help:      "Negotiations where no offered sub-protocol matched and the family default was used.",
		}, []string{"family"}),
		handshakeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_failures_total",
			Help:      "Total number of failed WebSocket upgrades.",
		}, []string{"reason"}),
		activeTransports: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_transports",
			Help:      "Number of accepted transports that are still open.",
		}, []string{"family"}),
		transportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transport_duration_seconds",
			Help:      "Lifetime of accepted transports in seconds.",
			Buckets:   []float64{1, 10, 60, 300, 1800, 3600, 14400, 86400},
		}, []string{"family"}),
	}

	for _, c := range []prometheus.Collector{
		m.negotiations,
		m.fallbacks,
		m.handshakeFailures,
		m.activeTransports,
		m.transportDuration,
	} {
		if err := r.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return m, nil
}

// Handler serves the registry in the Prometheus exposition format. It
// returns 404 when the metrics were built on an external registerer.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveNegotiation records a completed negotiation.
func (m *Metrics) ObserveNegotiation(family, subprotocol string, fallback bool) {
	if m == nil {
		return
	}
	m.negotiations.WithLabelValues(family, subprotocol).Inc()
	if fallback {
		m.fallbacks.WithLabelValues(family).Inc()
	}
}

// HandshakeFailed records a failed upgrade.
func (m *Metrics) HandshakeFailed(reason string) {
	if m == nil {
		return
	}
	m.handshakeFailures.WithLabelValues(reason).Inc()
}

// TransportOpened increments the active transport gauge.
func (m *Metrics) TransportOpened(family string) {
	if m == nil {
		return
	}
	m.activeTransports.WithLabelValues(family).Inc()
}

// TransportClosed decrements the active transport gauge and records the
// transport's lifetime.
func (m *Metrics) TransportClosed(family string, lifetime time.Duration) {
	if m == nil {
		return
	}
	m.activeTransports.WithLabelValues(family).Dec()
	m.transportDuration.WithLabelValues(family).Observe(lifetime.Seconds())
}
