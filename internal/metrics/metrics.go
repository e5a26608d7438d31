package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the fetch/compute pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FetchTotal      *prometheus.CounterVec // labels: source, status
	FetchDuration   *prometheus.HistogramVec
	ComputeDuration prometheus.Histogram
	BarsFetched     *prometheus.GaugeVec // labels: symbol
	RefreshTotal    prometheus.Counter
}

// New creates the metrics on a private registry along with Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpulse_fetch_total",
			Help: "Bar fetches by data source and outcome.",
		}, []string{"source", "status"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockpulse_fetch_duration_seconds",
			Help:    "Latency of bar fetches.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpulse_indicator_compute_seconds",
			Help:    "Time spent decorating one table with indicators.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		BarsFetched: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockpulse_bars",
			Help: "Bars in the most recent table per symbol.",
		}, []string{"symbol"}),
		RefreshTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_refresh_total",
			Help: "Scheduled dashboard refresh cycles.",
		}),
	}
	reg.MustRegister(
		m.FetchTotal, m.FetchDuration, m.ComputeDuration, m.BarsFetched, m.RefreshTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFetch records one fetch outcome.
func (m *Metrics) ObserveFetch(source, symbol, status string, bars int, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(source, status).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
	m.BarsFetched.WithLabelValues(symbol).Set(float64(bars))
}

// ObserveCompute records indicator computation time.
func (m *Metrics) ObserveCompute(d time.Duration) {
	if m == nil {
		return
	}
	m.ComputeDuration.Observe(d.Seconds())
}

// IncRefresh counts a scheduled refresh cycle.
func (m *Metrics) IncRefresh() {
	if m == nil {
		return
	}
	m.RefreshTotal.Inc()
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}
