package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-extractor/internal/observability"
	"github.com/jonathan/job-extractor/internal/scraper"
)

func newHealthCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe both extraction paths and print the health report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := newApp(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.scraper.HealthCheck(cmd.Context())
			if root.verbose {
				observability.NewPrinter(cmd.ErrOrStderr()).PrintHealth(report)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if report.Status == scraper.StatusDown {
				return errors.New("both extraction paths are down")
			}
			return nil
		},
	}
}
