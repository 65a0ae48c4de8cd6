package species

import "github.com/tphakala/birdnet-exporter/internal/logger"

// GetLogger returns the species module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("species")
}
