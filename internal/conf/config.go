package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/logger"
)

const appDirName = "birdnet-exporter"

// BirdNETConfig holds location and analysis parameters passed to the
// classifier along with the species label source.
type BirdNETConfig struct {
	Latitude    float64 // recording location, used for range filtering
	Longitude   float64
	Locale      string  // language of common names
	LabelURL    string  // label file URL template, %s is replaced by the locale file suffix
	ServerURL   string  // base URL of the BirdNET analysis server
	Sensitivity float64 // sigmoid sensitivity, 0.5 to 1.5
	Overlap     float64 // overlap between 3 s analysis chunks in seconds
	SFThreshold float64 // species occurrence threshold of the location filter
	PMode       string  // pooling of chunk scores, avg or max
	NumResults  int     // maximum detections returned per segment
	Timeout     time.Duration
}

// StreamsConfig controls the recorder loops
type StreamsConfig struct {
	URLs          []string      // stream connection strings
	SegmentLength time.Duration // nominal length of each recorded segment
	FFmpegPath    string        // empty means look up ffmpeg in PATH
	Transport     string        // rtsp transport, tcp or udp
	Codec         string        // ffmpeg audio codec
	Format        string        // segment file extension
	RetryInterval time.Duration // minimum time between capture attempts, 0 retries immediately
}

// StorageConfig names the working and inbox directories
type StorageConfig struct {
	WorkDir      string        // private area for segments being written, wiped at startup
	InboxDir     string        // completed segments awaiting classification
	PollInterval time.Duration // processor rescan interval when the inbox is idle
}

// TelemetryConfig controls the metrics endpoint
type TelemetryConfig struct {
	Enabled bool
	Listen  string
}

// MQTTConfig controls optional per-detection publishing
type MQTTConfig struct {
	Enabled       bool
	Broker        string
	Topic         string
	Username      string
	Password      string
	PasswordFile  string // read the password from a mounted secret instead
	ClientID      string
	Retain        bool
	MinConfidence float64
}

// NotificationConfig controls stream stall alerts
type NotificationConfig struct {
	URLs           []string // shoutrrr service URLs
	StallThreshold int      // consecutive failed captures before alerting
}

// MonitorConfig controls the inbox disk usage monitor
type MonitorConfig struct {
	Enabled  bool
	Interval time.Duration
}

// SentryConfig controls error telemetry
type SentryConfig struct {
	Enabled bool
	DSN     string
	DSNFile string
}

// Settings contains all configuration options for the exporter.
type Settings struct {
	Debug bool

	Version   string `yaml:"-"`
	BuildDate string `yaml:"-"`

	Logging      logger.LoggingConfig
	BirdNET      BirdNETConfig
	Streams      StreamsConfig
	Storage      StorageConfig
	Telemetry    TelemetryConfig
	MQTT         MQTTConfig
	Notification NotificationConfig
	Monitor      MonitorConfig
	Sentry       SentryConfig
}

// Load reads configuration into the global viper instance, which carries
// the command line flag bindings.
func Load() (*Settings, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads defaults, the config file and environment into v and
// decodes the result.
func LoadFrom(v *viper.Viper) (*Settings, error) {
	if err := initViper(v); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	normalizeSettings(settings)

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// DefaultSettings returns the built-in defaults without reading the
// environment or any config file.
func DefaultSettings() *Settings {
	v := viper.New()
	setDefaultConfig(v)

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		// defaults are static, a failure here is a programming error
		panic(fmt.Sprintf("conf: invalid defaults: %v", err))
	}
	normalizeSettings(settings)
	return settings
}

func initViper(v *viper.Viper) error {
	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return err
	}

	// An explicit file set with --config must exist; the search paths are optional.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			GetLogger().Debug("no config file found, using defaults and environment")
			return nil
		}
		return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("config_file", v.ConfigFileUsed()).
			Build()
	}

	GetLogger().Info("loaded config file", logger.String("path", v.ConfigFileUsed()))
	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appDirName))
	}
	return append(paths, filepath.Join("/etc", appDirName))
}

// normalizeSettings cleans values that arrive as free text from the environment
func normalizeSettings(s *Settings) {
	s.Streams.URLs = SplitStreamList(s.Streams.URLs)
	s.Notification.URLs = SplitStreamList(s.Notification.URLs)
	s.BirdNET.Locale = strings.TrimSpace(s.BirdNET.Locale)
	s.BirdNET.ServerURL = strings.TrimRight(strings.TrimSpace(s.BirdNET.ServerURL), "/")
	s.Storage.WorkDir = filepath.Clean(s.Storage.WorkDir)
	s.Storage.InboxDir = filepath.Clean(s.Storage.InboxDir)
	s.Streams.Format = strings.TrimPrefix(strings.TrimSpace(s.Streams.Format), ".")

	if s.Debug && s.Logging.DefaultLevel == "info" {
		s.Logging.DefaultLevel = "debug"
	}
}

// SplitStreamList splits every entry on commas, trims whitespace and drops
// blanks, so "a, b" and ["a", " b ", ""] both become [a b].
func SplitStreamList(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		for part := range strings.SplitSeq(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
