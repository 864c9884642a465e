// Package metrics exposes camdeck telemetry as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.Telemetry = (*Metrics)(nil)

// Metrics holds Prometheus collectors for scans, playback and rendering.
type Metrics struct {
	registry         *prometheus.Registry
	scansTotal       prometheus.Counter
	scanDuration     prometheus.Histogram
	clipsIndexed     prometheus.Gauge
	failedRootsTotal prometheus.Counter
	segmentsTotal    *prometheus.CounterVec
	playbackFailures *prometheus.CounterVec
	renderFailures   prometheus.Counter
	requestsTotal    prometheus.Counter
	errorsTotal      prometheus.Counter
}

// New creates and registers camdeck metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		scansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camdeck_scans_total",
			Help: "Total number of completed storage scans",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "camdeck_scan_duration_seconds",
			Help:    "Time taken by storage scans",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		clipsIndexed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camdeck_clips_indexed",
			Help: "Number of clips in the current index",
		}),
		failedRootsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camdeck_scan_failed_roots_total",
			Help: "Total number of storage roots that could not be scanned",
		}),
		segmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camdeck_segments_played_total",
			Help: "Segments a feed moved on to, by camera and whether the segment was preloaded",
		}, []string{"camera", "preloaded"}),
		playbackFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camdeck_playback_failures_total",
			Help: "Segments a surface failed to open or play, by camera",
		}, []string{"camera"}),
		renderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camdeck_render_failures_total",
			Help: "Total number of failed renders",
		}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camdeck_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camdeck_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
	}

	registry.MustRegister(
		m.scansTotal,
		m.scanDuration,
		m.clipsIndexed,
		m.failedRootsTotal,
		m.segmentsTotal,
		m.playbackFailures,
		m.renderFailures,
		m.requestsTotal,
		m.errorsTotal,
	)
	return m
}

// ScanCompleted records a finished scan.
func (m *Metrics) ScanCompleted(clips, failedRoots int, took time.Duration) {
	m.scansTotal.Inc()
	m.scanDuration.Observe(took.Seconds())
	m.clipsIndexed.Set(float64(clips))
	m.failedRootsTotal.Add(float64(failedRoots))
}

// SegmentAdvanced records a feed moving on to a new segment.
func (m *Metrics) SegmentAdvanced(camera string, preloaded bool) {
	m.segmentsTotal.WithLabelValues(camera, strconv.FormatBool(preloaded)).Inc()
}

// PlaybackFailed records a surface failure.
func (m *Metrics) PlaybackFailed(camera string) {
	m.playbackFailures.WithLabelValues(camera).Inc()
}

// RenderFailed records a renderer failure.
func (m *Metrics) RenderFailed() {
	m.renderFailures.Inc()
}

// Registry returns the registry metrics are collected in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		h.ServeHTTP(w, r)
	})
}

// SetClipsIndexed sets the indexed clips gauge.
func (m *Metrics) SetClipsIndexed(n int) {
	m.clipsIndexed.Set(float64(n))
}
