// Package analysis starts the exporter: it prepares the directories, builds
// one recorder per stream plus the single inbox processor and supervises
// them together with the metrics endpoint until the context ends.
package analysis

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/birdnet-exporter/internal/buildinfo"
	"github.com/tphakala/birdnet-exporter/internal/capture"
	"github.com/tphakala/birdnet-exporter/internal/classifier"
	"github.com/tphakala/birdnet-exporter/internal/conf"
	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/httpclient"
	"github.com/tphakala/birdnet-exporter/internal/inbox"
	"github.com/tphakala/birdnet-exporter/internal/logger"
	"github.com/tphakala/birdnet-exporter/internal/monitor"
	"github.com/tphakala/birdnet-exporter/internal/mqtt"
	"github.com/tphakala/birdnet-exporter/internal/notification"
	"github.com/tphakala/birdnet-exporter/internal/observability"
	"github.com/tphakala/birdnet-exporter/internal/privacy"
	"github.com/tphakala/birdnet-exporter/internal/processor"
	"github.com/tphakala/birdnet-exporter/internal/species"
)

const workDirPermissions = 0o755

// Options replaces production collaborators. Zero values select the
// defaults built from settings.
type Options struct {
	Capturer   capture.Capturer
	Classifier classifier.Classifier
	HTTPClient *httpclient.Client

	// Listener serves the metrics endpoint instead of Telemetry.Listen
	Listener net.Listener
	Metrics  *observability.Metrics

	// MQTT replaces the paho client when MQTT is enabled
	MQTT mqtt.Client
}

// Run starts every component and blocks until ctx is cancelled or a
// component fails. Cancellation is a clean shutdown and returns nil.
func Run(ctx context.Context, settings *conf.Settings, opts Options) error {
	if err := conf.ValidateStreams(settings); err != nil {
		return err
	}

	log := GetLogger()
	streams := uniqueStreams(settings.Streams.URLs)

	in, err := PrepareDirectories(settings.Storage.WorkDir, settings.Storage.InboxDir)
	if err != nil {
		return err
	}

	m := opts.Metrics
	if m == nil {
		if m, err = observability.NewMetrics(true); err != nil {
			return errors.New(err).
				Component("analysis").
				Category(errors.CategorySystem).
				Build()
		}
	}

	client := opts.HTTPClient
	if client == nil {
		client = httpclient.New(&httpclient.Config{UserAgent: buildinfo.UserAgent(settings.Version)})
		client.SetAfterResponseHook(logOutbound)
		defer client.Close()
	}

	labelURL := conf.LabelURL(settings.BirdNET.LabelURL, settings.BirdNET.Locale)
	names, err := species.Load(ctx, client, labelURL)
	if err != nil {
		log.Warn("species labels unavailable, detections will have empty common names",
			logger.Error(err))
	}

	capturer, err := newCapturer(settings, opts)
	if err != nil {
		return err
	}

	cls := opts.Classifier
	if cls == nil {
		if cls, err = classifier.NewServerClassifier(client, classifier.ServerConfig{
			URL:         settings.BirdNET.ServerURL,
			Sensitivity: settings.BirdNET.Sensitivity,
			Overlap:     settings.BirdNET.Overlap,
			SFThreshold: settings.BirdNET.SFThreshold,
			PMode:       settings.BirdNET.PMode,
			NumResults:  settings.BirdNET.NumResults,
			Timeout:     settings.BirdNET.Timeout,
		}); err != nil {
			return err
		}
	}

	var notifier *notification.Service
	var stall capture.StallNotifier
	if len(settings.Notification.URLs) > 0 {
		if notifier, err = notification.NewFromURLs(settings.Notification.URLs); err != nil {
			log.Warn("stall notifications disabled", logger.Error(err))
		} else {
			stall = notifier
		}
	}

	publisher, disconnect := connectMQTT(ctx, settings, opts)
	defer disconnect()

	proc, err := processor.New(processor.Config{
		Inbox:        in,
		Classifier:   cls,
		Names:        names,
		Metrics:      m,
		Publisher:    publisher,
		Latitude:     settings.BirdNET.Latitude,
		Longitude:    settings.BirdNET.Longitude,
		PollInterval: settings.Storage.PollInterval,
	})
	if err != nil {
		return err
	}

	recorders := make([]*capture.Recorder, 0, len(streams))
	for _, url := range streams {
		rec, err := capture.NewRecorder(capture.RecorderConfig{
			URL:            url,
			WorkDir:        settings.Storage.WorkDir,
			SegmentLength:  settings.Streams.SegmentLength,
			Extension:      settings.Streams.Format,
			Capturer:       capturer,
			Inbox:          in,
			Metrics:        m,
			RetryInterval:  settings.Streams.RetryInterval,
			Stall:          stall,
			StallThreshold: settings.Notification.StallThreshold,
		})
		if err != nil {
			return err
		}
		recorders = append(recorders, rec)
	}

	log.Info("starting exporter",
		logger.Any("streams", sanitizedStreams(streams)),
		logger.String("work_dir", settings.Storage.WorkDir),
		logger.String("inbox_dir", in.Dir()),
		logger.Duration("segment_length", settings.Streams.SegmentLength),
		logger.Int("species", names.Len()),
		logger.Bool("mqtt", publisher != nil),
		logger.Bool("notifications", notifier != nil))

	g, gctx := errgroup.WithContext(ctx)

	switch {
	case opts.Listener != nil:
		endpoint := observability.NewEndpoint(opts.Listener.Addr().String(), m)
		g.Go(func() error { return endpoint.Serve(gctx, opts.Listener) })
	case settings.Telemetry.Enabled:
		endpoint := observability.NewEndpoint(settings.Telemetry.Listen, m)
		g.Go(func() error { return endpoint.Run(gctx) })
	}

	for _, rec := range recorders {
		g.Go(func() error { return rec.Run(gctx) })
	}

	g.Go(func() error { return proc.Run(gctx) })

	if settings.Monitor.Enabled {
		dm := monitor.NewDiskMonitor(in.Dir(), settings.Monitor.Interval, m)
		g.Go(func() error { return dm.Run(gctx) })
	}

	if notifier != nil {
		g.Go(func() error { return notifier.Run(gctx) })
	}

	err = g.Wait()
	if err != nil {
		log.Error("exporter stopped with error", logger.Error(err))
		return err
	}

	log.Info("exporter stopped")
	return nil
}

// PrepareDirectories wipes and recreates workDir, which only ever holds
// partial segments, and opens the inbox. Inbox contents survive restarts.
func PrepareDirectories(workDir, inboxDir string) (*inbox.Inbox, error) {
	if err := os.RemoveAll(workDir); err != nil {
		return nil, dirError(err, "clean work directory", workDir)
	}
	if err := os.MkdirAll(workDir, workDirPermissions); err != nil {
		return nil, dirError(err, "create work directory", workDir)
	}

	in, err := inbox.Open(inboxDir)
	if err != nil {
		return nil, err
	}

	GetLogger().Debug("directories prepared",
		logger.String("work_dir", workDir),
		logger.String("inbox_dir", in.Dir()))
	return in, nil
}

func dirError(err error, op, path string) error {
	return errors.New(err).
		Component("analysis").
		Category(errors.CategoryFileIO).
		Context("operation", op).
		Context("path", path).
		Build()
}

func newCapturer(settings *conf.Settings, opts Options) (capture.Capturer, error) {
	if opts.Capturer != nil {
		return opts.Capturer, nil
	}

	path, err := conf.ValidateToolPath(settings.Streams.FFmpegPath, conf.GetFfmpegBinaryName())
	if err != nil {
		return nil, errors.New(err).
			Component("analysis").
			Category(errors.CategoryConfiguration).
			Context("tool", "ffmpeg").
			Build()
	}
	return capture.NewFFmpegCapturer(path, settings.Streams.Transport, settings.Streams.Codec), nil
}

// connectMQTT returns a nil publisher when MQTT is disabled. A broker that
// is down at startup is not fatal; paho keeps reconnecting.
func connectMQTT(ctx context.Context, settings *conf.Settings, opts Options) (processor.DetectionPublisher, func()) {
	noop := func() {}
	if !settings.MQTT.Enabled {
		return nil, noop
	}
	log := GetLogger()

	client := opts.MQTT
	if client == nil {
		cfg := mqtt.DefaultConfig()
		cfg.Broker = settings.MQTT.Broker
		cfg.Username = settings.MQTT.Username
		cfg.Password = settings.MQTT.Password
		cfg.Retain = settings.MQTT.Retain
		if settings.MQTT.ClientID != "" {
			cfg.ClientID = settings.MQTT.ClientID
		}

		var err error
		if client, err = mqtt.NewClient(cfg); err != nil {
			log.Warn("mqtt publishing disabled", logger.Error(err))
			return nil, noop
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		log.Warn("mqtt broker not reachable at startup",
			logger.String("broker", privacy.RedactUserinfo(settings.MQTT.Broker)),
			logger.Error(err))
	}

	pub := mqtt.NewPublisher(client, mqtt.PublisherConfig{
		Topic:         settings.MQTT.Topic,
		MinConfidence: settings.MQTT.MinConfidence,
		Latitude:      settings.BirdNET.Latitude,
		Longitude:     settings.BirdNET.Longitude,
	})
	return pub, client.Disconnect
}

// uniqueStreams drops repeated URLs. Two recorders on one URL would share a
// fingerprint and could produce colliding segment names.
func uniqueStreams(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		if _, dup := seen[url]; dup {
			GetLogger().Warn("ignoring duplicate stream",
				logger.String("stream", privacy.SanitizeStreamURL(url)))
			continue
		}
		seen[url] = struct{}{}
		out = append(out, url)
	}
	return out
}

// logOutbound traces calls to the label source and the classifier.
func logOutbound(req *http.Request, resp *http.Response, err error) {
	fields := []logger.Field{
		logger.String("method", req.Method),
		logger.String("url", privacy.RedactUserinfo(req.URL.String())),
	}
	if err != nil {
		GetLogger().Debug("outbound request failed", append(fields, logger.Error(err))...)
		return
	}
	GetLogger().Debug("outbound request", append(fields, logger.Int("status", resp.StatusCode))...)
}

func sanitizedStreams(urls []string) []string {
	out := make([]string, len(urls))
	for i, url := range urls {
		out[i] = privacy.SanitizeStreamURL(url)
	}
	return out
}
