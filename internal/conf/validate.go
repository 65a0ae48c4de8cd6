package conf

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/logger"
)

// ValidationError collects every problem found in one validation pass
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

// ValidateSettings checks ranges and formats. A missing stream list is not
// checked here since only the run command needs streams; see ValidateStreams.
func ValidateSettings(s *Settings) error {
	ve := ValidationError{}

	if s.BirdNET.Latitude < -90 || s.BirdNET.Latitude > 90 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("latitude must be between -90 and 90, got %g", s.BirdNET.Latitude))
	}
	if s.BirdNET.Longitude < -180 || s.BirdNET.Longitude > 180 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("longitude must be between -180 and 180, got %g", s.BirdNET.Longitude))
	}
	if s.BirdNET.Sensitivity < 0.5 || s.BirdNET.Sensitivity > 1.5 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("sensitivity must be between 0.5 and 1.5, got %g", s.BirdNET.Sensitivity))
	}
	if s.BirdNET.Overlap < 0 || s.BirdNET.Overlap >= 3 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("overlap must be in [0, 3), got %g", s.BirdNET.Overlap))
	}
	if s.BirdNET.PMode != "avg" && s.BirdNET.PMode != "max" {
		ve.Errors = append(ve.Errors, fmt.Sprintf("pmode must be avg or max, got %q", s.BirdNET.PMode))
	}
	if s.BirdNET.NumResults < 1 {
		ve.Errors = append(ve.Errors, "numresults must be at least 1")
	}
	if u, err := url.Parse(s.BirdNET.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		ve.Errors = append(ve.Errors, fmt.Sprintf("invalid birdnet server url %q", s.BirdNET.ServerURL))
	}

	if s.Streams.SegmentLength <= 0 {
		ve.Errors = append(ve.Errors, "segment length must be positive")
	}
	if s.Streams.RetryInterval < 0 {
		ve.Errors = append(ve.Errors, "retry interval must not be negative")
	}
	if s.Streams.Format == "" {
		ve.Errors = append(ve.Errors, "segment format must not be empty")
	}

	if s.Storage.WorkDir == s.Storage.InboxDir {
		ve.Errors = append(ve.Errors, "work dir and inbox dir must differ")
	}
	if s.Storage.PollInterval <= 0 {
		ve.Errors = append(ve.Errors, "poll interval must be positive")
	}

	if s.MQTT.Enabled && s.MQTT.Broker == "" {
		ve.Errors = append(ve.Errors, "mqtt broker must be set when mqtt is enabled")
	}
	if s.Notification.StallThreshold < 1 {
		ve.Errors = append(ve.Errors, "notification stall threshold must be at least 1")
	}
	if s.Monitor.Enabled && s.Monitor.Interval <= 0 {
		ve.Errors = append(ve.Errors, "monitor interval must be positive")
	}

	if _, err := LabelLocale(s.BirdNET.Locale); err != nil {
		GetLogger().Warn("locale fallback", logger.Error(err))
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// ValidateStreams fails when no stream is configured. The daemon calls it
// before touching the filesystem.
func ValidateStreams(s *Settings) error {
	for _, stream := range s.Streams.URLs {
		if strings.TrimSpace(stream) != "" {
			return nil
		}
	}
	return errors.New(errors.NewStd("no audio streams provided, set AUDIO_STREAMS")).
		Component("conf").
		Category(errors.CategoryConfiguration).
		Build()
}
