package classifier

import "github.com/tphakala/birdnet-exporter/internal/logger"

// GetLogger returns the classifier module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("classifier")
}
