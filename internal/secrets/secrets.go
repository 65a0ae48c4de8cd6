// Package secrets resolves credentials that should not live in the config
// file: values may reference environment variables as ${VAR} or
// ${VAR:-fallback}, and a *_FILE setting reads the value from a mounted
// Docker or Kubernetes secret instead.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/logger"
)

// maxFileSize bounds a secret file; tokens and passwords are tiny
const maxFileSize = 64 * 1024

// GetLogger returns the secrets module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("secrets")
}

// Expand replaces ${VAR} and ${VAR:-fallback} references. A reference
// without fallback to an unset variable is an error naming the variable.
// Strings without "${" are returned as is, so passwords may contain "$".
func Expand(s string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if !hasFallback {
			missing = append(missing, name)
		}
		return fallback
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing environment variable(s): %s", strings.Join(missing, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return expanded, nil
}

// ReadFile returns the content of a secret file without trailing newlines.
// Files readable by group or others are accepted with a warning.
func ReadFile(path string) (string, error) {
	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	if err != nil {
		return "", fileError(err, clean)
	}
	switch {
	case !info.Mode().IsRegular():
		return "", fileError(fmt.Errorf("not a regular file"), clean)
	case info.Size() > maxFileSize:
		return "", fileError(fmt.Errorf("larger than %d bytes", maxFileSize), clean)
	}

	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		GetLogger().Warn("secret file is readable by group or others",
			logger.String("path", clean),
			logger.String("mode", fmt.Sprintf("%04o", perm)))
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return "", fileError(err, clean)
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fileError(fmt.Errorf("file is empty"), clean)
	}
	return secret, nil
}

// Resolve prefers filePath when set and otherwise expands value. Both
// empty resolves to "".
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return Expand(value)
}

func fileError(err error, path string) error {
	return errors.New(fmt.Errorf("read secret file: %w", err)).
		Component("secrets").
		Category(errors.CategoryConfiguration).
		Context("path", path).
		Build()
}
