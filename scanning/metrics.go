package scanning

import (
	"github.com/prometheus/client_golang/prometheus"

	"dev.hon.one/radar/common"
	"dev.hon.one/radar/util"
)

// Scan results, as metric labels.
const (
	scanResultFound    = "found"
	scanResultNotFound = "not_found"
	scanResultAborted  = "aborted"
)

// Metrics - Scan metrics, registered on their own registry.
type Metrics struct {
	Registry      *prometheus.Registry
	probes        *prometheus.CounterVec
	probeDuration prometheus.Histogram
	probesActive  prometheus.Gauge
	scans         *prometheus.CounterVec
}

// NewMetrics - Create and register scan metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	util.NewExporterMetric(registry, common.PrometheusNamespace, common.AppVersion)
	return &Metrics{
		Registry:      registry,
		probes:        util.NewCounterVec(registry, common.PrometheusNamespace, "probe", "total", "Completed probes by outcome.", "outcome"),
		probeDuration: util.NewHistogram(registry, common.PrometheusNamespace, "probe", "duration_seconds", "Duration of completed probes.", []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10}),
		probesActive:  util.NewGauge(registry, common.PrometheusNamespace, "probe", "in_flight", "Probes currently running.", nil),
		scans:         util.NewCounterVec(registry, common.PrometheusNamespace, "scan", "total", "Completed scans by result.", "result"),
	}
}

func (metrics *Metrics) probeStarted() {
	if metrics == nil {
		return
	}
	metrics.probesActive.Inc()
}

func (metrics *Metrics) probeDone() {
	if metrics == nil {
		return
	}
	metrics.probesActive.Dec()
}

func (metrics *Metrics) observeProbe(entry common.ProbeEntry) {
	if metrics == nil {
		return
	}
	metrics.probes.WithLabelValues(entry.Outcome).Inc()
	metrics.probeDuration.Observe(entry.Duration.Seconds())
}

func (metrics *Metrics) observeScan(result string) {
	if metrics == nil {
		return
	}
	metrics.scans.WithLabelValues(result).Inc()
}

// WriteTextfile - Write all metrics in the Prometheus text format, for the node exporter textfile collector.
func (metrics *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, metrics.Registry)
}
