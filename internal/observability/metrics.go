// Package observability owns the Prometheus registry of the exporter and
// the HTTP endpoint that serves it. Sentry error telemetry lives in the
// telemetry package.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tphakala/birdnet-exporter/internal/observability/metrics"
)

// Metrics holds all metric collectors of the application on a private
// registry, so several instances can coexist in tests.
type Metrics struct {
	registry  *prometheus.Registry
	Capture   *metrics.CaptureMetrics
	Detection *metrics.DetectionMetrics
	Inbox     *metrics.InboxMetrics
}

// NewMetrics creates the registry and every collector. Go runtime and
// process collectors are included unless withRuntime is false.
func NewMetrics(withRuntime bool) (*Metrics, error) {
	registry := prometheus.NewRegistry()

	if withRuntime {
		if err := registry.Register(collectors.NewGoCollector()); err != nil {
			return nil, fmt.Errorf("failed to register go collector: %w", err)
		}
		if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, fmt.Errorf("failed to register process collector: %w", err)
		}
	}

	captureMetrics, err := metrics.NewCaptureMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture metrics: %w", err)
	}

	detectionMetrics, err := metrics.NewDetectionMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection metrics: %w", err)
	}

	inboxMetrics, err := metrics.NewInboxMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create inbox metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Capture:   captureMetrics,
		Detection: detectionMetrics,
		Inbox:     inboxMetrics,
	}, nil
}

// Registry returns the registry backing /metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// AddAudioSeconds implements metrics.CaptureRecorder
func (m *Metrics) AddAudioSeconds(seconds float64) {
	m.Capture.AddAudioSeconds(seconds)
}

// RecordPublished implements metrics.CaptureRecorder
func (m *Metrics) RecordPublished(stream string, unixSeconds float64) {
	m.Capture.RecordPublished(stream, unixSeconds)
}

// RecordCaptureFailure implements metrics.CaptureRecorder
func (m *Metrics) RecordCaptureFailure(stream string) {
	m.Capture.RecordCaptureFailure(stream)
}

// ObserveConfidence implements metrics.DetectionRecorder
func (m *Metrics) ObserveConfidence(commonName, scientificName string, confidence float64) {
	m.Detection.ObserveConfidence(commonName, scientificName, confidence)
}

// RecordClassification implements metrics.DetectionRecorder
func (m *Metrics) RecordClassification(status string, seconds float64) {
	m.Detection.RecordClassification(status, seconds)
}

// SetBacklog implements metrics.DetectionRecorder
func (m *Metrics) SetBacklog(n int) {
	m.Inbox.SetBacklog(n)
}

// SetDiskUsage implements metrics.DiskUsageRecorder
func (m *Metrics) SetDiskUsage(freeBytes uint64, usedPercent float64) {
	m.Inbox.SetDiskUsage(freeBytes, usedPercent)
}

var (
	_ metrics.CaptureRecorder   = (*Metrics)(nil)
	_ metrics.DetectionRecorder = (*Metrics)(nil)
	_ metrics.DiskUsageRecorder = (*Metrics)(nil)
)
