package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DetectionMetrics tracks classification results
type DetectionMetrics struct {
	Confidence             *prometheus.HistogramVec
	Classifications        *prometheus.CounterVec
	ClassificationDuration prometheus.Histogram

	registry prometheus.Registerer
}

// NewDetectionMetrics creates and registers the detection collectors.
func NewDetectionMetrics(registry prometheus.Registerer) (*DetectionMetrics, error) {
	m := &DetectionMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register detection metrics: %w", err)
	}
	return m, nil
}

func (m *DetectionMetrics) initMetrics() {
	m.Confidence = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "detection_confidence",
		Help:    "Detection confidence by bird species",
		Buckets: ConfidenceBuckets(),
	}, []string{"common_name", "scientific_name"})
	m.Classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classifications_total",
		Help: "Segments handed to the classifier, by outcome.",
	}, []string{"status"})
	m.ClassificationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "classification_duration_seconds",
		Help:    "Time spent classifying one segment.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to 32s
	})

	// expose both outcomes from the first scrape
	m.Classifications.WithLabelValues(StatusSuccess)
	m.Classifications.WithLabelValues(StatusError)
}

// ObserveConfidence records one detection. commonName may be empty.
func (m *DetectionMetrics) ObserveConfidence(commonName, scientificName string, confidence float64) {
	m.Confidence.WithLabelValues(commonName, scientificName).Observe(confidence)
}

// RecordClassification counts one classifier call and its duration.
func (m *DetectionMetrics) RecordClassification(status string, seconds float64) {
	m.Classifications.WithLabelValues(status).Inc()
	m.ClassificationDuration.Observe(seconds)
}

// Describe implements the prometheus.Collector interface.
func (m *DetectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Confidence.Describe(ch)
	m.Classifications.Describe(ch)
	ch <- m.ClassificationDuration.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *DetectionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Confidence.Collect(ch)
	m.Classifications.Collect(ch)
	ch <- m.ClassificationDuration
}
