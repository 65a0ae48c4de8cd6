package analysis

import "github.com/tphakala/birdnet-exporter/internal/logger"

// GetLogger returns the analysis module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("analysis")
}
