package telemetry

import "github.com/tphakala/birdnet-exporter/internal/logger"

// GetLogger returns the telemetry module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}
