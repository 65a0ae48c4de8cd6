// Package monitor samples the filesystem holding the inbox so operators can
// alert before a stalled classifier fills the disk with segments.
package monitor

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/tphakala/birdnet-exporter/internal/logger"
	"github.com/tphakala/birdnet-exporter/internal/observability/metrics"
)

const (
	// DefaultInterval is the sampling interval when none is configured
	DefaultInterval = time.Minute

	// DefaultWarningPercent logs a warning once used space crosses it
	DefaultWarningPercent = 90.0

	// hysteresisPercent avoids warning again for small fluctuations
	hysteresisPercent = 5.0

	bytesPerGB = 1024 * 1024 * 1024
)

// GetLogger returns the module logger for the disk monitor
func GetLogger() logger.Logger {
	return logger.Global().Module("monitor")
}

// UsageFunc returns filesystem usage for path; disk.Usage by default.
type UsageFunc func(ctx context.Context, path string) (*disk.UsageStat, error)

// DiskMonitor periodically records inbox filesystem usage.
type DiskMonitor struct {
	path           string
	interval       time.Duration
	warningPercent float64
	recorder       metrics.DiskUsageRecorder
	usage          UsageFunc
	log            logger.Logger

	inWarning bool
}

// NewDiskMonitor monitors the filesystem holding path.
func NewDiskMonitor(path string, interval time.Duration, recorder metrics.DiskUsageRecorder) *DiskMonitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &DiskMonitor{
		path:           path,
		interval:       interval,
		warningPercent: DefaultWarningPercent,
		recorder:       recorder,
		usage:          disk.UsageWithContext,
		log:            GetLogger().With(logger.String("path", path)),
	}
}

// Run samples immediately and then every interval until ctx is cancelled.
func (m *DiskMonitor) Run(ctx context.Context) error {
	m.log.Info("disk monitor started", logger.Duration("interval", m.interval))

	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check takes one sample.
func (m *DiskMonitor) Check(ctx context.Context) {
	usage, err := m.usage(ctx, m.path)
	if err != nil {
		m.log.Error("failed to get disk usage", logger.Error(err))
		return
	}

	m.recorder.SetDiskUsage(usage.Free, usage.UsedPercent)

	m.log.Debug("disk usage sampled",
		logger.Uint64("free_bytes", usage.Free),
		logger.Float64("used_percent", usage.UsedPercent),
		logger.String("filesystem", usage.Fstype))

	switch {
	case !m.inWarning && usage.UsedPercent >= m.warningPercent:
		m.inWarning = true
		m.log.Warn("inbox filesystem almost full",
			logger.Float64("used_percent", usage.UsedPercent),
			logger.Float64("free_gb", float64(usage.Free)/bytesPerGB))
	case m.inWarning && usage.UsedPercent < m.warningPercent-hysteresisPercent:
		m.inWarning = false
		m.log.Info("inbox filesystem usage back to normal",
			logger.Float64("used_percent", usage.UsedPercent))
	}
}
