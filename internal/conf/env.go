package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding maps one config key to its environment variables. The first
// variable that is set wins, so the short legacy names take precedence over
// the BIRDNET_ prefixed aliases.
type envBinding struct {
	ConfigKey string
	EnvVars   []string
	Validate  func(string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"streams.urls", []string{"AUDIO_STREAMS", "BIRDNET_AUDIO_STREAMS"}, validateEnvStreams},
		{"birdnet.latitude", []string{"LATITUDE", "BIRDNET_LATITUDE"}, validateEnvLatitude},
		{"birdnet.longitude", []string{"LONGITUDE", "BIRDNET_LONGITUDE"}, validateEnvLongitude},
		{"birdnet.locale", []string{"LOCALE", "BIRDNET_LOCALE"}, nil},
		{"birdnet.serverurl", []string{"BIRDNET_SERVER_URL"}, validateEnvURL},
		{"birdnet.sensitivity", []string{"BIRDNET_SENSITIVITY"}, validateEnvSensitivity},

		{"storage.workdir", []string{"BIRDNET_WORK_DIR"}, nil},
		{"storage.inboxdir", []string{"BIRDNET_INBOX_DIR"}, nil},
		{"streams.ffmpegpath", []string{"FFMPEG_PATH"}, nil},

		{"telemetry.listen", []string{"METRICS_LISTEN"}, nil},
		{"logging.default_level", []string{"LOG_LEVEL"}, validateEnvLogLevel},
		{"debug", []string{"BIRDNET_DEBUG"}, validateEnvBool},

		{"mqtt.enabled", []string{"MQTT_ENABLED"}, validateEnvBool},
		{"mqtt.broker", []string{"MQTT_BROKER"}, validateEnvURL},
		{"mqtt.topic", []string{"MQTT_TOPIC"}, nil},
		{"mqtt.username", []string{"MQTT_USERNAME"}, nil},
		{"mqtt.password", []string{"MQTT_PASSWORD"}, nil},
		{"mqtt.passwordfile", []string{"MQTT_PASSWORD_FILE"}, nil},

		{"notification.urls", []string{"NOTIFICATION_URLS"}, nil},

		{"sentry.enabled", []string{"SENTRY_ENABLED"}, validateEnvBool},
		{"sentry.dsn", []string{"SENTRY_DSN"}, nil},
		{"sentry.dsnfile", []string{"SENTRY_DSN_FILE"}, nil},
	}
}

// bindEnvVars binds every environment variable and validates the ones that
// are set. All problems are collected into one error.
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		input := append([]string{binding.ConfigKey}, binding.EnvVars...)
		if err := v.BindEnv(input...); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", strings.Join(binding.EnvVars, "/"), err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		for _, name := range binding.EnvVars {
			value := os.Getenv(name)
			if value == "" {
				continue
			}
			if err := binding.Validate(value); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s: %v", name, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value %q: must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvLatitude(value string) error {
	lat, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid latitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %g", lat)
	}
	return nil
}

func validateEnvLongitude(value string) error {
	lng, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid longitude: %w", err)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", lng)
	}
	return nil
}

func validateEnvSensitivity(value string) error {
	s, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid sensitivity: %w", err)
	}
	if s < 0.5 || s > 1.5 {
		return fmt.Errorf("sensitivity must be between 0.5 and 1.5, got %g", s)
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %q", value)
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("url must include scheme and host")
	}
	return nil
}

// validateEnvStreams rejects entries that cannot be handed to ffmpeg as an
// input. An empty list is not an error here; it is reported at startup.
func validateEnvStreams(value string) error {
	for _, stream := range SplitStreamList([]string{value}) {
		if strings.ContainsAny(stream, " \t\n") {
			return fmt.Errorf("stream entry contains whitespace")
		}
	}
	return nil
}
