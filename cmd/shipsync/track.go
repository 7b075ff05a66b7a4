package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/parcel-labs/shipsync/internal/adapters/dhl"
	logAdapter "github.com/parcel-labs/shipsync/internal/adapters/log"
	"github.com/parcel-labs/shipsync/internal/cliconfig"
)

// newTrackCmd builds the ad-hoc lookup subcommand. It queries the
// carrier directly and prints the result; Odoo is not touched.
func newTrackCmd(cfg *cliconfig.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "track <tracking-number>",
		Short:   "Look up a single tracking number",
		Args:    cobra.ExactArgs(1),
		Example: "  shipsync track 00340434292135100186",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey := cfg.CarrierAPIKey
			if apiKey == "" {
				apiKey = os.Getenv("DHL_API_KEY")
			}
			if apiKey == "" {
				return fmt.Errorf("dhl-api-key is required (flag or DHL_API_KEY)")
			}

			baseURL := cfg.CarrierURL
			if baseURL == "" {
				baseURL = cliconfig.DefaultCarrierURL
			}
			timeout := cfg.HTTPTimeout
			if timeout <= 0 {
				timeout = 30 * time.Second
			}

			client := dhl.NewClient(baseURL, apiKey,
				&http.Client{Timeout: timeout},
				logAdapter.NewNoopLogger(),
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			snap, err := client.FetchStatus(ctx, args[0])
			if err != nil {
				return fmt.Errorf("fetch status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tracking number: %s\n", args[0])
			fmt.Fprintf(out, "Status:          %s\n", snap.Status)
			if !snap.Timestamp.IsZero() {
				fmt.Fprintf(out, "As of:           %s\n", snap.Timestamp.Format(time.RFC3339))
			}
			if snap.Description != "" {
				fmt.Fprintf(out, "Detail:          %s\n", snap.Description)
			}
			if snap.NextSteps != "" {
				fmt.Fprintf(out, "Next steps:      %s\n", snap.NextSteps)
			}

			if len(snap.Events) > 0 {
				fmt.Fprintln(out, "\nHistory:")
				for _, ev := range snap.Events {
					line := "  " + ev.Time.Format("2006-01-02 15:04")
					if ev.Location != "" {
						line += "  " + ev.Location
					}
					if ev.Description != "" {
						line += "  " + ev.Description
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.CarrierAPIKey, "dhl-api-key", cfg.CarrierAPIKey, "DHL tracking API key")
	return cmd
}
