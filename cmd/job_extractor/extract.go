package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/job-extractor/internal/observability"
	"github.com/jonathan/job-extractor/internal/rendering"
)

type extractOptions struct {
	*rootOptions
	json bool
	save bool
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract one job posting",
		Long: `Extract a single job posting and print it as a rendered text block,
or as JSON with --json. --save stores the result in PostgreSQL (DATABASE_URL).`,
		Args: cobra.ExactArgs(1),
		RunE: opts.run,
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the extraction as JSON")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Persist the extraction to the database")
	return cmd
}

func (o *extractOptions) run(cmd *cobra.Command, args []string) error {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if o.save && cfg.DB.URL == "" {
		return errors.New("--save requires DATABASE_URL or db.url")
	}

	a, err := newApp(cmd.Context(), cfg, logger, o.save)
	if err != nil {
		return err
	}
	defer a.Close()

	ex, err := a.extractor.Extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ex); err != nil {
			return fmt.Errorf("encode extraction: %w", err)
		}
	} else if text := rendering.RenderExtraction(ex); text != "" {
		fmt.Fprintln(out, text)
	}

	if o.verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintExtraction(ex)
	}
	if ex.Failed() {
		return fmt.Errorf("extraction failed: %s", ex.ErrorMessage)
	}

	if o.save {
		row, err := a.store.SaveExtraction(cmd.Context(), ex)
		if err != nil {
			return err
		}
		logger.Info("extraction saved", zap.String("id", row.ID.String()), zap.String("url", row.URL))
	}
	return nil
}
