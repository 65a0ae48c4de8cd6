package conf

import (
	"github.com/tphakala/birdnet-exporter/internal/secrets"
)

// resolveSecrets expands ${VAR} references in credentials and reads the
// *_FILE variants. Notification URLs usually embed service tokens.
func resolveSecrets(s *Settings) error {
	var err error

	if s.MQTT.Password, err = secrets.Resolve(s.MQTT.PasswordFile, s.MQTT.Password); err != nil {
		return err
	}
	if s.Sentry.DSN, err = secrets.Resolve(s.Sentry.DSNFile, s.Sentry.DSN); err != nil {
		return err
	}
	for i, u := range s.Notification.URLs {
		if s.Notification.URLs[i], err = secrets.Expand(u); err != nil {
			return err
		}
	}
	return nil
}
