// Package metrics exposes Prometheus counters for the preview loop and lifecycle.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "preview"

// Metrics holds every preview metric.
type Metrics struct {
	framesTotal        prometheus.Counter
	frameDuration      prometheus.Histogram
	frameErrors        prometheus.Counter
	transitionsTotal   *prometheus.CounterVec
	measurementUpdates prometheus.Counter
	acquisitionsTotal  *prometheus.CounterVec
	phase              *prometheus.GaugeVec
}

// New registers the metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		framesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames submitted to the drawing surface",
		}),
		frameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_render_seconds",
			Help:      "Time spent rasterizing one frame",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		frameErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_errors_total",
			Help:      "Frames the surface failed to render",
		}),
		transitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_transitions_total",
			Help:      "View transitions requested, by target preset",
		}, []string{"preset"}),
		measurementUpdates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurement_updates_total",
			Help:      "Measurement records applied to the garment",
		}),
		acquisitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "surface_acquisitions_total",
			Help:      "Surface acquisition attempts, by result",
		}, []string{"backend", "result"}),
		phase: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lifecycle_phase",
			Help:      "1 for the current lifecycle phase, 0 otherwise",
		}, []string{"phase"}),
	}
}

// FrameRendered records one submitted frame and how long it took.
func (m *Metrics) FrameRendered(d time.Duration) {
	if m == nil {
		return
	}
	m.framesTotal.Inc()
	m.frameDuration.Observe(d.Seconds())
}

func (m *Metrics) FrameFailed() {
	if m == nil {
		return
	}
	m.frameErrors.Inc()
}

func (m *Metrics) TransitionRequested(preset string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(preset).Inc()
}

func (m *Metrics) MeasurementsChanged() {
	if m == nil {
		return
	}
	m.measurementUpdates.Inc()
}

// SurfaceAcquired counts an acquisition attempt on backend.
func (m *Metrics) SurfaceAcquired(backend string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.acquisitionsTotal.WithLabelValues(backend, result).Inc()
}

// SetPhase marks current as the active phase among all.
func (m *Metrics) SetPhase(current string, all []string) {
	if m == nil {
		return
	}
	for _, p := range all {
		v := 0.0
		if p == current {
			v = 1
		}
		m.phase.WithLabelValues(p).Set(v)
	}
}

// Handler serves g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
