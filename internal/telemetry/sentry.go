// Package telemetry wires optional Sentry error reporting. Nothing is sent
// unless it is explicitly enabled with a DSN; stream URLs and service
// tokens are scrubbed from every event.
package telemetry

import (
	"fmt"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/logger"
	"github.com/tphakala/birdnet-exporter/internal/privacy"
)

const (
	// reportInterval is the minimum time between two reports of the same
	// component and category; a dead camera would otherwise report on
	// every retry.
	reportInterval = 10 * time.Minute

	flushTimeout = 2 * time.Second
)

// Config controls Sentry initialization
type Config struct {
	Enabled bool
	DSN     string
	Version string
	Debug   bool
}

// Init sets up Sentry and installs the error reporter. It returns a flush
// function to call on shutdown. When telemetry is disabled it is a no-op.
func Init(cfg Config) (func(), error) {
	if !cfg.Enabled {
		return func() {}, nil
	}
	if cfg.DSN == "" {
		return nil, errors.Newf("sentry enabled but no DSN configured").
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      "production",
		Release:          fmt.Sprintf("birdnet-exporter@%s", version),
		Debug:            cfg.Debug,
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("sentry init: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
	})

	errors.SetPrivacyScrubber(privacy.ScrubMessage)
	errors.SetTelemetryReporter(NewThrottledReporter(errors.NewSentryReporter(true), reportInterval))

	GetLogger().Info("error telemetry enabled", logger.String("release", version))

	return func() {
		errors.SetTelemetryReporter(nil)
		sentry.Flush(flushTimeout)
	}, nil
}

// beforeSend scrubs URLs from everything that leaves the process and drops
// server names, which are often hostnames chosen by the user.
func beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil {
		return nil
	}
	event.ServerName = ""
	event.Message = privacy.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}
	for i := range event.Breadcrumbs {
		event.Breadcrumbs[i].Message = privacy.ScrubMessage(event.Breadcrumbs[i].Message)
	}
	return event
}
