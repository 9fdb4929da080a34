package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/job-extractor/internal/config"
	"github.com/jonathan/job-extractor/internal/logging"
	"github.com/jonathan/job-extractor/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  `Serve /extract, /extract/batch, /extractions, /health, /stats and /metrics until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger, err := logging.New(cfg.Logging.Development || root.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := newApp(cmd.Context(), cfg, logger, true)
			if err != nil {
				return err
			}
			defer a.Close()

			deps := server.Deps{
				Extractor: a.extractor,
				Pipeline:  a.scraper,
				Metrics:   a.metrics,
				Gatherer:  a.registry,
				Logger:    logger,
			}
			if a.store != nil {
				deps.Store = a.store
			}
			srv, err := server.New(cfg, deps)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			logger.Info("configuration loaded",
				zap.Bool("primary_enabled", cfg.Firecrawl.APIKey != ""),
				zap.Bool("persistence", a.store != nil),
				zap.Bool("auth", cfg.Auth.Enabled()),
				zap.String("cache", cfg.Cache.Backend))
			return srv.Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
