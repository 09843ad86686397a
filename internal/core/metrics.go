package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsNamespace prefixes every metric name.
const MetricsNamespace = "ravenembed"

// Result label values.
const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics holds the Prometheus collectors updated by a Server. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	serverStarts    *prometheus.CounterVec
	serverStartTime prometheus.Histogram
	serverShutdowns *prometheus.CounterVec
	storesOpen      prometheus.Gauge
	storeInits      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered, which is useful in tests.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		serverStarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "server_starts_total",
				Help:      "Total number of server start attempts by result",
			},
			[]string{"result"},
		),
		serverStartTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "server_start_duration_seconds",
				Help:      "Time from start request until the server announced its address",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
		),
		serverShutdowns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "server_shutdowns_total",
				Help:      "Total number of server shutdowns by mode",
			},
			[]string{"mode"},
		),
		storesOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: MetricsNamespace,
				Name:      "document_stores_open",
				Help:      "Number of document stores currently open",
			},
		),
		storeInits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "document_store_inits_total",
				Help:      "Total number of document store initializations by result",
			},
			[]string{"result"},
		),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.serverStarts,
		m.serverStartTime,
		m.serverShutdowns,
		m.storesOpen,
		m.storeInits,
	}
}

func resultLabel(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}

func (m *Metrics) observeStart(started time.Time, err error) {
	if m == nil {
		return
	}
	m.serverStarts.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		m.serverStartTime.Observe(time.Since(started).Seconds())
	}
}

func (m *Metrics) observeShutdown(mode string) {
	if m == nil {
		return
	}
	m.serverShutdowns.WithLabelValues(mode).Inc()
}

func (m *Metrics) observeStoreInit(err error) {
	if m == nil {
		return
	}
	m.storeInits.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		m.storesOpen.Inc()
	}
}

func (m *Metrics) observeStoreClose() {
	if m == nil {
		return
	}
	m.storesOpen.Dec()
}
