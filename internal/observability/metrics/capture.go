package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CaptureMetrics tracks the recorder loops
type CaptureMetrics struct {
	AudioAnalyzedSeconds prometheus.Counter
	SegmentsPublished    *prometheus.CounterVec
	CaptureFailures      *prometheus.CounterVec
	LastPublish          *prometheus.GaugeVec

	registry prometheus.Registerer
}

// NewCaptureMetrics creates and registers the capture collectors.
func NewCaptureMetrics(registry prometheus.Registerer) (*CaptureMetrics, error) {
	m := &CaptureMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register capture metrics: %w", err)
	}
	return m, nil
}

func (m *CaptureMetrics) initMetrics() {
	m.AudioAnalyzedSeconds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audio_analyzed_duration_seconds_total",
		Help: "Seconds of audio data analyzed",
	})
	m.SegmentsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "capture_segments_published_total",
		Help: "Segments moved into the inbox, by stream fingerprint.",
	}, []string{"stream"})
	m.CaptureFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "capture_failures_total",
		Help: "Capture attempts that produced no segment, by stream fingerprint.",
	}, []string{"stream"})
	m.LastPublish = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "capture_last_publish_timestamp_seconds",
		Help: "Unix time of the last published segment, by stream fingerprint.",
	}, []string{"stream"})
}

// AddAudioSeconds adds the nominal length of a published segment.
func (m *CaptureMetrics) AddAudioSeconds(seconds float64) {
	m.AudioAnalyzedSeconds.Add(seconds)
}

// RecordPublished counts a published segment for stream.
func (m *CaptureMetrics) RecordPublished(stream string, unixSeconds float64) {
	m.SegmentsPublished.WithLabelValues(stream).Inc()
	m.LastPublish.WithLabelValues(stream).Set(unixSeconds)
}

// RecordCaptureFailure counts a failed capture for stream.
func (m *CaptureMetrics) RecordCaptureFailure(stream string) {
	m.CaptureFailures.WithLabelValues(stream).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *CaptureMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.AudioAnalyzedSeconds.Desc()
	m.SegmentsPublished.Describe(ch)
	m.CaptureFailures.Describe(ch)
	m.LastPublish.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *CaptureMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.AudioAnalyzedSeconds
	m.SegmentsPublished.Collect(ch)
	m.CaptureFailures.Collect(ch)
	m.LastPublish.Collect(ch)
}
