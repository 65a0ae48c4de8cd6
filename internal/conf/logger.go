// Package conf loads and validates exporter configuration from defaults, an
// optional YAML file and environment variables.
package conf

import "github.com/tphakala/birdnet-exporter/internal/logger"

// GetLogger returns the config module logger. It is resolved on each call
// so it follows the central logger installed after package init.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
