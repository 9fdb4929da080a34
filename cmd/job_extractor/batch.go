package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-extractor/internal/extractor"
	"github.com/jonathan/job-extractor/internal/observability"
)

type batchOptions struct {
	*rootOptions
	urls        []string
	file        string
	concurrency int
	json        bool
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	opts := &batchOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Extract several job postings concurrently",
		Long: `Extract every URL from --urls (comma separated) and --file (one URL per
line, "#" starts a comment). Results keep input order; successful postings are
printed as one text block followed by a summary.`,
		Args: cobra.NoArgs,
		RunE: opts.run,
	}
	cmd.Flags().StringSliceVar(&opts.urls, "urls", nil, "Comma-separated URLs")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "File with one URL per line")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 0, "Concurrent extractions (default from config, capped by batch.max_concurrency)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the batch result as JSON")
	return cmd
}

func (o *batchOptions) run(cmd *cobra.Command, _ []string) error {
	urls := append([]string(nil), o.urls...)
	if o.file != "" {
		fromFile, err := readURLFile(o.file)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return errors.New("no URLs given; use --urls or --file")
	}

	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	concurrency := o.concurrency
	if concurrency == 0 {
		concurrency = cfg.Batch.DefaultConcurrency
	}
	rendered, result, err := a.extractor.ExtractAndRender(cmd.Context(), urls, extractor.Options{Concurrency: concurrency})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	if rendered != "" {
		fmt.Fprintln(out, rendered)
		fmt.Fprintln(out)
	}
	printer := observability.NewPrinter(out)
	printer.PrintBatch(result)
	if o.verbose {
		printer.PrintStats(a.scraper.GetStats())
	}
	return nil
}

// readURLFile returns the non-blank, non-comment lines of path.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}
