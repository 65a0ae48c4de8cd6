package inbox

import "github.com/tphakala/birdnet-exporter/internal/logger"

// GetLogger returns the inbox module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("inbox")
}
