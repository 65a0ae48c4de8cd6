// Package capture records fixed-length segments from live audio streams and
// publishes each completed segment into the inbox.
//
// One Recorder runs per stream. A segment is written to the private work
// directory under a stream_ prefixed name and moved into the inbox by a
// single rename once the capture tool has exited and left a non-empty file,
// so the processing loop never sees a file that is still being written.
package capture

import (
	"context"
	"time"
)

// Capturer records duration seconds of the stream at url into out.
// Implementations must stop promptly when ctx is cancelled.
type Capturer interface {
	Capture(ctx context.Context, url string, duration time.Duration, out string) error
}

// CaptureFunc adapts a function to Capturer.
type CaptureFunc func(ctx context.Context, url string, duration time.Duration, out string) error

// Capture calls f.
func (f CaptureFunc) Capture(ctx context.Context, url string, duration time.Duration, out string) error {
	return f(ctx, url, duration, out)
}

// Publisher moves a finished segment into the inbox under name.
type Publisher interface {
	Publish(src, name string) error
}

// StallNotifier is told when a stream keeps failing and when it comes back.
// stream is the sanitized stream URL.
type StallNotifier interface {
	StreamStalled(stream string, failures int, lastErr error)
	StreamRecovered(stream string, failures int)
}
