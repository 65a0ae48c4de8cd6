//go:build unix

package inbox

import (
	"golang.org/x/sys/unix"

	"github.com/tphakala/birdnet-exporter/internal/errors"
)

func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
