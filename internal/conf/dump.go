package conf

import (
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/birdnet-exporter/internal/privacy"
)

const redacted = "[REDACTED]"

// noStreamsNotice heads the dump when no stream is configured. There is no
// usable default stream, so realtime exits with status 1 in that case.
const noStreamsNotice = "# streams.urls is empty by default: set AUDIO_STREAMS (comma separated)\n" +
	"# or streams.urls, realtime refuses to start without a stream\n"

// WriteYAML writes the effective settings as YAML with secrets masked.
func WriteYAML(w io.Writer, s *Settings) error {
	if ValidateStreams(s) != nil {
		if _, err := io.WriteString(w, noStreamsNotice); err != nil {
			return err
		}
	}

	masked := *s
	masked.Streams.URLs = slices.Clone(s.Streams.URLs)
	for i, u := range masked.Streams.URLs {
		masked.Streams.URLs[i] = privacy.RedactUserinfo(u)
	}
	masked.Notification.URLs = make([]string, len(s.Notification.URLs))
	for i := range s.Notification.URLs {
		masked.Notification.URLs[i] = redacted
	}
	if masked.MQTT.Password != "" {
		masked.MQTT.Password = redacted
	}
	if masked.Sentry.DSN != "" {
		masked.Sentry.DSN = redacted
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return err
	}
	return enc.Close()
}
