package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// InboxMetrics tracks the inbox backlog and the filesystem it lives on
type InboxMetrics struct {
	Backlog         prometheus.Gauge
	DiskFreeBytes   prometheus.Gauge
	DiskUsedPercent prometheus.Gauge

	registry prometheus.Registerer
}

// NewInboxMetrics creates and registers the inbox collectors.
func NewInboxMetrics(registry prometheus.Registerer) (*InboxMetrics, error) {
	m := &InboxMetrics{registry: registry}
	m.Backlog = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inbox_backlog_files",
		Help: "Segments found in the inbox at the start of the last processing pass.",
	})
	m.DiskFreeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inbox_disk_free_bytes",
		Help: "Free bytes on the filesystem holding the inbox.",
	})
	m.DiskUsedPercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inbox_disk_used_percent",
		Help: "Used percentage of the filesystem holding the inbox.",
	})
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register inbox metrics: %w", err)
	}
	return m, nil
}

// SetBacklog records the number of pending segments.
func (m *InboxMetrics) SetBacklog(n int) {
	m.Backlog.Set(float64(n))
}

// SetDiskUsage records free bytes and used percent of the inbox filesystem.
func (m *InboxMetrics) SetDiskUsage(freeBytes uint64, usedPercent float64) {
	m.DiskFreeBytes.Set(float64(freeBytes))
	m.DiskUsedPercent.Set(usedPercent)
}

// Describe implements the prometheus.Collector interface.
func (m *InboxMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.Backlog.Desc()
	ch <- m.DiskFreeBytes.Desc()
	ch <- m.DiskUsedPercent.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *InboxMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.Backlog
	ch <- m.DiskFreeBytes
	ch <- m.DiskUsedPercent
}
