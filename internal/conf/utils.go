package conf

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/tphakala/birdnet-exporter/internal/logger"
)

// GetFfmpegBinaryName returns the ffmpeg executable name for this OS.
func GetFfmpegBinaryName() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// ValidateToolPath resolves an external tool. A configured path that exists
// wins, otherwise the tool is looked up in PATH.
func ValidateToolPath(configuredPath, toolName string) (string, error) {
	if configuredPath != "" {
		if info, err := os.Stat(configuredPath); err == nil && !info.IsDir() {
			return configuredPath, nil
		}
		GetLogger().Warn("configured tool path invalid or not found, checking system PATH",
			logger.String("configured_path", configuredPath),
			logger.String("tool", toolName))
	}

	path, err := exec.LookPath(toolName)
	if err == nil {
		return path, nil
	}

	if configuredPath != "" {
		return "", fmt.Errorf("tool '%s' not found at configured path '%s' or in system PATH", toolName, configuredPath)
	}
	return "", fmt.Errorf("tool '%s' not found in system PATH and no path configured", toolName)
}
