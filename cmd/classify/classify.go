// Package classify sends a single audio file to the BirdNET server, which
// is handy to check the server and label settings before starting the
// daemon.
package classify

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdnet-exporter/internal/buildinfo"
	"github.com/tphakala/birdnet-exporter/internal/classifier"
	"github.com/tphakala/birdnet-exporter/internal/conf"
	"github.com/tphakala/birdnet-exporter/internal/httpclient"
	"github.com/tphakala/birdnet-exporter/internal/logger"
	"github.com/tphakala/birdnet-exporter/internal/species"
)

type options struct {
	all           bool
	minConfidence float64
}

// Command creates the classify command.
func Command(settings func() *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Classify one audio file and print the detections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settings()
			client := httpclient.New(&httpclient.Config{UserAgent: buildinfo.UserAgent(s.Version)})
			defer client.Close()

			names, err := species.Load(cmd.Context(), client, conf.LabelURL(s.BirdNET.LabelURL, s.BirdNET.Locale))
			if err != nil {
				logger.Global().Module("classify").Warn("species labels unavailable", logger.Error(err))
			}

			cls, err := classifier.NewServerClassifier(client, classifier.ServerConfig{
				URL:           s.BirdNET.ServerURL,
				Sensitivity:   s.BirdNET.Sensitivity,
				Overlap:       s.BirdNET.Overlap,
				SFThreshold:   s.BirdNET.SFThreshold,
				PMode:         s.BirdNET.PMode,
				NumResults:    s.BirdNET.NumResults,
				MinConfidence: opts.minConfidence,
				Timeout:       s.BirdNET.Timeout,
			})
			if err != nil {
				return err
			}

			detections, err := cls.Classify(cmd.Context(), classifier.Request{
				Path:          args[0],
				Latitude:      s.BirdNET.Latitude,
				Longitude:     s.BirdNET.Longitude,
				Time:          time.Now(),
				AllDetections: opts.all,
			})
			if err != nil {
				return err
			}

			return printDetections(cmd.OutOrStdout(), detections, names)
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "Print every detection regardless of confidence")
	cmd.Flags().Float64Var(&opts.minConfidence, "min-confidence", 0.1, "Hide detections below this confidence")

	return cmd
}

// printDetections writes a table. The common name comes from the label
// file when it knows the species, else from the server.
func printDetections(w io.Writer, detections []classifier.Detection, names *species.NameMap) error {
	if len(detections) == 0 {
		_, err := fmt.Fprintln(w, "no detections")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONFIDENCE\tSCIENTIFIC NAME\tCOMMON NAME")
	for _, d := range detections {
		common := names.Lookup(d.ScientificName)
		if common == "" {
			common = d.CommonName
		}
		fmt.Fprintf(tw, "%.2f\t%s\t%s\n", d.Confidence, d.ScientificName, common)
	}
	return tw.Flush()
}
