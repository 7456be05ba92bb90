// Package metrics collects pipeline counters in a private Prometheus
// registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	failures      *prometheus.CounterVec
	exports       *prometheus.CounterVec
	smallWarnings prometheus.Counter
	bytesOut      prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "covercrop_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "covercrop_failures_total",
			Help: "Pipeline failures by stage and error kind.",
		}, []string{"stage", "kind"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "covercrop_exports_total",
			Help: "Exported covers by output mode and color mode.",
		}, []string{"output", "color_mode"}),
		smallWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "covercrop_small_image_warnings_total",
			Help: "Sources flagged as too small for their target.",
		}),
		bytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "covercrop_export_bytes_total",
			Help: "Total encoded bytes of exported covers.",
		}),
	}
	registry.MustRegister(m.stageDuration, m.failures, m.exports, m.smallWarnings, m.bytesOut)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStage records the duration since start and, on error, a failure
// labeled with the error's kind.
func (m *Metrics) ObserveStage(stage string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		kind := string(imagefile.KindOf(err))
		if kind == "" {
			kind = "other"
		}
		m.failures.WithLabelValues(stage, kind).Inc()
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(time.Since(start).Seconds())
}

// Export counts one exported cover.
func (m *Metrics) Export(output, colorMode string, size int) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(output, colorMode).Inc()
	m.bytesOut.Add(float64(size))
}

// SmallImageWarning counts one advisor warning.
func (m *Metrics) SmallImageWarning() {
	if m == nil {
		return
	}
	m.smallWarnings.Inc()
}

// WriteTextfile writes the registry in text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
