package capture

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/privacy"
)

const (
	defaultCodec     = "libmp3lame"
	defaultTransport = "tcp"

	// stderrTailSize is how much ffmpeg stderr is kept for error messages
	stderrTailSize = 2048

	// waitDelay bounds the wait for ffmpeg's pipes after it was killed
	waitDelay = 5 * time.Second
)

// FFmpegCapturer records segments with an ffmpeg process per capture.
type FFmpegCapturer struct {
	// Path is the ffmpeg binary
	Path string
	// Transport is passed as -rtsp_transport for rtsp:// and rtsps:// URLs
	Transport string
	// Codec is the output audio codec
	Codec string
}

// NewFFmpegCapturer returns a capturer using the ffmpeg binary at path.
func NewFFmpegCapturer(path, transport, codec string) *FFmpegCapturer {
	if transport == "" {
		transport = defaultTransport
	}
	if codec == "" {
		codec = defaultCodec
	}
	return &FFmpegCapturer{Path: path, Transport: transport, Codec: codec}
}

// Args returns the ffmpeg command line for one capture.
func (f *FFmpegCapturer) Args(url string, duration time.Duration, out string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}

	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "rtsp://") || strings.HasPrefix(lower, "rtsps://") {
		args = append(args, "-rtsp_transport", f.Transport)
	}

	return append(args,
		"-i", url,
		"-t", strconv.FormatFloat(duration.Seconds(), 'f', -1, 64),
		"-vn",
		"-acodec", f.Codec,
		"-y", out,
	)
}

// Capture runs ffmpeg until it exits. Cancelling ctx kills the whole
// process group.
func (f *FFmpegCapturer) Capture(ctx context.Context, url string, duration time.Duration, out string) error {
	if f.Path == "" {
		return errors.Newf("ffmpeg path not set").
			Component("capture").
			Category(errors.CategoryConfiguration).
			Build()
	}

	cmd := exec.CommandContext(ctx, f.Path, f.Args(url, duration, out)...)
	setupProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = waitDelay

	stderr := &tailBuffer{limit: stderrTailSize}
	cmd.Stdout = nil
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail := privacy.ScrubMessage(strings.TrimSpace(stderr.String()))
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryCommandExecution).
			Context("stream", privacy.SanitizeStreamURL(url)).
			Timing("ffmpeg", time.Since(start)).
			Build()
	}

	return nil
}

// tailBuffer keeps the last limit bytes written to it
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
