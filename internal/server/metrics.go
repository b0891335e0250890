package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the service's Prometheus collectors, kept on a private
// registry so several servers can coexist in one process.
type Metrics struct {
	reg           *prometheus.Registry
	ScansTotal    *prometheus.CounterVec
	MatchesTotal  *prometheus.CounterVec
	ErrorsTotal   *prometheus.CounterVec
	ScanDuration  prometheus.Histogram
	PanicsTotal   prometheus.Counter
	DictTermGauge *prometheus.GaugeVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordsift",
			Name:      "scans_total",
			Help:      "Texts scanned, by endpoint and mode.",
		}, []string{"endpoint", "mode"}),
		MatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordsift",
			Name:      "matches_total",
			Help:      "Matches reported, by type.",
		}, []string{"type"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordsift",
			Name:      "scan_errors_total",
			Help:      "Rejected or failed scans, by reason.",
		}, []string{"reason"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wordsift",
			Name:      "scan_duration_seconds",
			Help:      "Time spent scanning one text.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		PanicsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wordsift",
			Name:      "http_panics_total",
			Help:      "Handler panics recovered.",
		}),
		DictTermGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wordsift",
			Name:      "dictionary_terms",
			Help:      "Terms in the active dictionary, by partition.",
		}, []string{"partition"}),
	}
	m.reg.MustRegister(m.ScansTotal, m.MatchesTotal, m.ErrorsTotal, m.ScanDuration, m.PanicsTotal, m.DictTermGauge)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
