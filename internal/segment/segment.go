// Package segment names recorded audio segments. Inbox names carry the
// stream fingerprint and the capture time so files from different streams
// never collide and sort by capture time per stream.
package segment

import (
	"crypto/sha1" //nolint:gosec // used as a short stable identifier, not for security
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// FingerprintLength is the number of hex characters kept from the digest
	FingerprintLength = 8

	// TimestampLayout formats capture times as YYYY-MM-DD-HHMMSS
	TimestampLayout = "2006-01-02-150405"

	// WorkPrefix marks files still being written in the working area
	WorkPrefix = "stream_"

	// DefaultExtension is the container format of recorded segments
	DefaultExtension = "mp3"
)

// Fingerprint returns the first 8 hex characters of the SHA-1 digest of the
// stream connection string. It is deterministic and pure.
func Fingerprint(stream string) string {
	sum := sha1.Sum([]byte(stream)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

// FileName returns the inbox name of a segment, <fp>_<timestamp>.<ext>.
func FileName(fp string, ts time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", fp, ts.Format(TimestampLayout), normalizeExt(ext))
}

// WorkFileName returns the working area name, stream_<fp>_<timestamp>.<ext>.
func WorkFileName(fp string, ts time.Time, ext string) string {
	return WorkPrefix + FileName(fp, ts, ext)
}

// Info is what can be recovered from an inbox file name
type Info struct {
	Fingerprint string
	CapturedAt  time.Time
	Extension   string
}

// Parse recovers the fingerprint and capture time from an inbox file name.
// The timestamp carries no zone and is interpreted in loc.
func Parse(name string, loc *time.Location) (Info, error) {
	base := filepath.Base(name)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	fp, stamp, ok := strings.Cut(stem, "_")
	if !ok || len(fp) != FingerprintLength || !isHex(fp) {
		return Info{}, fmt.Errorf("segment name %q: missing fingerprint", base)
	}

	if loc == nil {
		loc = time.Local
	}
	ts, err := time.ParseInLocation(TimestampLayout, stamp, loc)
	if err != nil {
		return Info{}, fmt.Errorf("segment name %q: %w", base, err)
	}

	return Info{Fingerprint: fp, CapturedAt: ts, Extension: ext}, nil
}

func normalizeExt(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return DefaultExtension
	}
	return ext
}

func isHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
