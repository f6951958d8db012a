// Package metrics provides Prometheus metrics export for the vision service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports pipeline and reporting metrics in Prometheus format.
type Metrics struct {
	registry *prometheus.Registry

	framesProcessed  *prometheus.CounterVec
	detectionCycles  *prometheus.CounterVec
	facesDetected    *prometheus.CounterVec
	matchesSelected  *prometheus.CounterVec
	cameraReopens    *prometheus.CounterVec
	reportsDelivered prometheus.Counter
	reportsFailed    prometheus.Counter
	indexSize        prometheus.Gauge
}

// New creates a metrics set on its own registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.framesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rakshak",
			Subsystem: "pipeline",
			Name:      "frames_processed_total",
			Help:      "Total number of frames read and published per camera",
		},
		[]string{"camera"},
	)

	m.detectionCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rakshak",
			Subsystem: "pipeline",
			Name:      "detection_cycles_total",
			Help:      "Total number of detect-and-match cycles per camera",
		},
		[]string{"camera"},
	)

	m.facesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rakshak",
			Subsystem: "pipeline",
			Name:      "faces_detected_total",
			Help:      "Total number of faces detected per camera",
		},
		[]string{"camera"},
	)

	m.matchesSelected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rakshak",
			Subsystem: "pipeline",
			Name:      "matches_selected_total",
			Help:      "Total number of best-candidate matches selected per camera",
		},
		[]string{"camera"},
	)

	m.cameraReopens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rakshak",
			Subsystem: "pipeline",
			Name:      "camera_reopens_total",
			Help:      "Total number of mid-stream camera reopen attempts",
		},
		[]string{"camera"},
	)

	m.reportsDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rakshak",
			Subsystem: "reporter",
			Name:      "reports_delivered_total",
			Help:      "Total number of match reports accepted downstream",
		},
	)

	m.reportsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rakshak",
			Subsystem: "reporter",
			Name:      "reports_failed_total",
			Help:      "Total number of match reports that failed to deliver",
		},
	)

	m.indexSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rakshak",
			Subsystem: "index",
			Name:      "embeddings",
			Help:      "Current number of embeddings in the live search index",
		},
	)

	m.registry.MustRegister(
		m.framesProcessed,
		m.detectionCycles,
		m.facesDetected,
		m.matchesSelected,
		m.cameraReopens,
		m.reportsDelivered,
		m.reportsFailed,
		m.indexSize,
	)
	return m
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) FrameProcessed(camera string) { m.framesProcessed.WithLabelValues(camera).Inc() }
func (m *Metrics) DetectionCycle(camera string) { m.detectionCycles.WithLabelValues(camera).Inc() }
func (m *Metrics) CameraReopened(camera string) { m.cameraReopens.WithLabelValues(camera).Inc() }
func (m *Metrics) MatchSelected(camera string)  { m.matchesSelected.WithLabelValues(camera).Inc() }
func (m *Metrics) ReportDelivered()             { m.reportsDelivered.Inc() }
func (m *Metrics) ReportFailed()                { m.reportsFailed.Inc() }
func (m *Metrics) SetIndexSize(n int)           { m.indexSize.Set(float64(n)) }

// FacesDetected adds the number of faces found in one detection cycle.
func (m *Metrics) FacesDetected(camera string, n int) {
	m.facesDetected.WithLabelValues(camera).Add(float64(n))
}
