package processor

import "github.com/tphakala/birdnet-exporter/internal/logger"

// GetLogger returns the processor module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("processor")
}
