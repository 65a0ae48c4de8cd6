package conf

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultLabelURL is the BirdNET-Analyzer V2.4 label file, %s is the locale suffix
const DefaultLabelURL = "https://raw.githubusercontent.com/birdnet-team/BirdNET-Analyzer/refs/heads/main/birdnet_analyzer/labels/V2.4/BirdNET_GLOBAL_6K_V2.4_Labels_%s.txt"

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/birdnet-exporter.log")
	v.SetDefault("logging.file_output.level", "info")

	v.SetDefault("birdnet.latitude", 51.7749)
	v.SetDefault("birdnet.longitude", 7.2229)
	v.SetDefault("birdnet.locale", "en")
	v.SetDefault("birdnet.labelurl", DefaultLabelURL)
	v.SetDefault("birdnet.serverurl", "http://localhost:8080")
	v.SetDefault("birdnet.sensitivity", 1.0)
	v.SetDefault("birdnet.overlap", 0.0)
	v.SetDefault("birdnet.sfthreshold", 0.03)
	v.SetDefault("birdnet.pmode", "avg")
	v.SetDefault("birdnet.numresults", 10)
	v.SetDefault("birdnet.timeout", 2*time.Minute)

	// no default stream: realtime exits 1 until AUDIO_STREAMS is set
	v.SetDefault("streams.urls", []string{})
	v.SetDefault("streams.segmentlength", 15*time.Second)
	v.SetDefault("streams.ffmpegpath", "")
	v.SetDefault("streams.transport", "tcp")
	v.SetDefault("streams.codec", "libmp3lame")
	v.SetDefault("streams.format", "mp3")
	v.SetDefault("streams.retryinterval", time.Duration(0))

	v.SetDefault("storage.workdir", "temp")
	v.SetDefault("storage.inboxdir", "incoming")
	v.SetDefault("storage.pollinterval", time.Second)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.listen", ":8000")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "birdnet/detections")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.passwordfile", "")
	v.SetDefault("mqtt.clientid", "birdnet-exporter")
	v.SetDefault("mqtt.retain", false)
	v.SetDefault("mqtt.minconfidence", 0.0)

	v.SetDefault("notification.urls", []string{})
	v.SetDefault("notification.stallthreshold", 20)

	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.interval", time.Minute)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.dsnfile", "")
}
