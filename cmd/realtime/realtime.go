// Package realtime runs the exporter daemon.
package realtime

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdnet-exporter/internal/analysis"
	"github.com/tphakala/birdnet-exporter/internal/conf"
	"github.com/tphakala/birdnet-exporter/internal/telemetry"
)

// Command creates the command that captures the configured streams and
// serves the metrics until interrupted.
func Command(settings func() *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Capture streams and export detections",
		Long:  "Record the configured audio streams in segments, classify them with the BirdNET server and export the detections as Prometheus metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), settings())
		},
	}

	if err := setupFlags(cmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// Run starts the exporter and returns once SIGINT or SIGTERM has shut it
// down.
func Run(ctx context.Context, settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	flush, err := telemetry.Init(telemetry.Config{
		Enabled: settings.Sentry.Enabled,
		DSN:     settings.Sentry.DSN,
		Version: settings.Version,
		Debug:   settings.Debug,
	})
	if err != nil {
		return err
	}
	defer flush()

	return analysis.Run(ctx, settings, analysis.Options{})
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().StringSlice("stream", nil, "Audio stream URL, repeat or comma separate for several streams")
	cmd.Flags().String("listen", "", "Listen address of the metrics endpoint")
	cmd.Flags().String("workdir", "", "Directory for segments being recorded")
	cmd.Flags().String("inbox", "", "Directory for segments awaiting classification")

	for key, name := range map[string]string{
		"streams.urls":     "stream",
		"telemetry.listen": "listen",
		"storage.workdir":  "workdir",
		"storage.inboxdir": "inbox",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("error binding flags: %w", err)
		}
	}
	return nil
}
