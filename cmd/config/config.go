// Package config prints the effective configuration.
package config

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/birdnet-exporter/internal/conf"
)

// Command creates the config command. Secrets are masked in the output.
func Command(settings func() *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return conf.WriteYAML(cmd.OutOrStdout(), settings())
		},
	}
}
