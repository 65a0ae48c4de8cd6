// Package fingerprint prints the segment name prefix used for a stream, so
// operators can map metric labels back to cameras.
package fingerprint

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdnet-exporter/internal/privacy"
	"github.com/tphakala/birdnet-exporter/internal/segment"
)

// Command creates the fingerprint command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <url>...",
		Short: "Print the fingerprint of stream URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, url := range args {
				if _, err := fmt.Fprintf(out, "%s\t%s\n", segment.Fingerprint(url), privacy.SanitizeStreamURL(url)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
