// Package cmd assembles the command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdnet-exporter/cmd/classify"
	"github.com/tphakala/birdnet-exporter/cmd/config"
	"github.com/tphakala/birdnet-exporter/cmd/fingerprint"
	"github.com/tphakala/birdnet-exporter/cmd/realtime"
	"github.com/tphakala/birdnet-exporter/internal/buildinfo"
	"github.com/tphakala/birdnet-exporter/internal/conf"
	"github.com/tphakala/birdnet-exporter/internal/logger"
)

// runState carries what PersistentPreRunE prepares to the subcommands.
type runState struct {
	build      *buildinfo.Context
	configFile string
	settings   *conf.Settings
	central    *logger.CentralLogger
}

// RootCommand creates the root command. Without a subcommand it starts the
// exporter, same as "realtime".
func RootCommand(build *buildinfo.Context) *cobra.Command {
	state := &runState{build: build}

	rootCmd := &cobra.Command{
		Use:          "birdnet-exporter",
		Short:        "Export BirdNET detections from audio streams as Prometheus metrics",
		Version:      build.GetVersion(),
		SilenceUsage: true,
	}

	if err := setupFlags(rootCmd, state); err != nil {
		panic(err)
	}

	realtimeCmd := realtime.Command(state.Settings)
	rootCmd.RunE = realtimeCmd.RunE

	rootCmd.AddCommand(
		realtimeCmd,
		classify.Command(state.Settings),
		fingerprint.Command(),
		config.Command(state.Settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return state.initialize()
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return state.central.Close()
	}

	return rootCmd
}

// Settings returns the settings loaded by PersistentPreRunE.
func (s *runState) Settings() *conf.Settings {
	return s.settings
}

// initialize loads the configuration and installs the global logger. It
// runs after flag parsing so flags take precedence over file and
// environment.
func (s *runState) initialize() error {
	if s.configFile != "" {
		viper.SetConfigFile(s.configFile)
	}

	settings, err := conf.Load()
	if err != nil {
		return err
	}
	settings.Version = s.build.GetVersion()
	settings.BuildDate = s.build.GetBuildDate()

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	s.settings = settings
	s.central = central
	return nil
}

func setupFlags(rootCmd *cobra.Command, state *runState) error {
	rootCmd.PersistentFlags().StringVar(&state.configFile, "config", "", "Path to config file (default: ./config.yaml, ~/.config/birdnet-exporter/config.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
