// Package extractor is the entry point for callers: it validates URLs, runs them
// through the scraper under a bounded worker pool and reports per-batch stats.
package extractor

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-extractor/internal/fetch"
	"github.com/jonathan/job-extractor/internal/rendering"
	"github.com/jonathan/job-extractor/internal/types"
)

const (
	// DefaultConcurrency is used when a batch does not set one
	DefaultConcurrency = 3
	// MaxConcurrency caps the in-flight extractions of one batch
	MaxConcurrency = 5
)

// Scraper extracts a single URL and never fails; see scraper.Service.
type Scraper interface {
	ScrapeJobURL(ctx context.Context, url string) *types.JobPostingExtraction
}

// Options configures one ExtractMultiple call.
type Options struct {
	Concurrency int `json:"concurrency" validate:"min=1"`
}

// DefaultOptions returns Options with DefaultConcurrency.
func DefaultOptions() Options {
	return Options{Concurrency: DefaultConcurrency}
}

// BatchItem is the result slot for one input URL.
type BatchItem struct {
	Index        int                         `json:"index"`
	URL          string                      `json:"url"`
	Extraction   *types.JobPostingExtraction `json:"extraction,omitempty"`
	Error        error                       `json:"-"`
	ErrorMessage string                      `json:"error,omitempty"`
}

// Succeeded reports whether the slot holds a usable extraction.
func (i BatchItem) Succeeded() bool {
	return i.Error == nil && i.Extraction != nil && !i.Extraction.Failed()
}

// BatchStats summarizes a batch.
type BatchStats struct {
	Total              int     `json:"total"`
	Successful         int     `json:"successful"`
	Failed             int     `json:"failed"`
	SuccessRate        float64 `json:"success_rate"`
	EssentialInfoCount int     `json:"essential_info_count"`
	EssentialInfoRate  float64 `json:"essential_info_rate"`
}

// BatchResult holds one item per input URL, in input order.
type BatchResult struct {
	Results []BatchItem `json:"results"`
	Stats   BatchStats  `json:"stats"`
}

// Extractions returns the extraction of every slot, nil for invalid URLs.
func (r *BatchResult) Extractions() []*types.JobPostingExtraction {
	out := make([]*types.JobPostingExtraction, len(r.Results))
	for i, item := range r.Results {
		out[i] = item.Extraction
	}
	return out
}

// Extractor runs extractions through a Scraper.
type Extractor struct {
	scraper        Scraper
	maxConcurrency int
	validate       *validator.Validate
	logger         *zap.Logger
}

// New creates an Extractor. maxConcurrency <= 0 means MaxConcurrency.
func New(scraper Scraper, maxConcurrency int, logger *zap.Logger) *Extractor {
	if maxConcurrency <= 0 {
		maxConcurrency = MaxConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		scraper:        scraper,
		maxConcurrency: maxConcurrency,
		validate:       validator.New(),
		logger:         logger.Named("extractor"),
	}
}

// Extract validates rawURL and scrapes it. The only error is an InvalidInput
// *types.ExtractionError; scrape failures are reported on the extraction.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*types.JobPostingExtraction, error) {
	if err := checkURL(rawURL); err != nil {
		return nil, err
	}
	return e.scraper.ScrapeJobURL(ctx, rawURL), nil
}

// ExtractMultiple extracts urls with at most opts.Concurrency (capped at the
// extractor's maximum) in flight. Result i always belongs to urls[i]. Invalid URLs
// fail their own slot only; the returned error is reserved for invalid options.
func (e *Extractor) ExtractMultiple(ctx context.Context, urls []string, opts Options) (*BatchResult, error) {
	if err := e.validate.Struct(opts); err != nil {
		return nil, &types.ExtractionError{
			Kind:    types.KindInvalidInput,
			Message: "invalid batch options",
			Cause:   err,
		}
	}
	limit := opts.Concurrency
	if limit > e.maxConcurrency {
		limit = e.maxConcurrency
	}

	result := &BatchResult{Results: make([]BatchItem, len(urls))}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, url := range urls {
		result.Results[i] = BatchItem{Index: i, URL: url}
		if err := checkURL(url); err != nil {
			result.Results[i].Error = err
			result.Results[i].ErrorMessage = err.Error()
			continue
		}
		g.Go(func() error {
			ex := e.scraper.ScrapeJobURL(ctx, url)
			result.Results[i].Extraction = ex
			if ex.Failed() {
				result.Results[i].Error = ex.Error
				result.Results[i].ErrorMessage = ex.ErrorMessage
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Stats = summarize(result.Results)
	e.logger.Info("batch finished",
		zap.Int("total", result.Stats.Total),
		zap.Int("successful", result.Stats.Successful),
		zap.Int("failed", result.Stats.Failed),
		zap.Int("concurrency", limit))
	return result, nil
}

// ExtractAndRender runs ExtractMultiple and renders the successful postings as one
// text block.
func (e *Extractor) ExtractAndRender(ctx context.Context, urls []string, opts Options) (string, *BatchResult, error) {
	result, err := e.ExtractMultiple(ctx, urls, opts)
	if err != nil {
		return "", nil, err
	}
	return rendering.RenderBatch(result.Extractions()), result, nil
}

func checkURL(rawURL string) error {
	if _, err := fetch.ValidateURL(rawURL); err != nil {
		return &types.ExtractionError{
			Kind:    types.KindInvalidInput,
			URL:     rawURL,
			Message: fmt.Sprintf("not an absolute http(s) URL: %q", rawURL),
			Cause:   err,
		}
	}
	return nil
}

func summarize(items []BatchItem) BatchStats {
	stats := BatchStats{Total: len(items)}
	for _, item := range items {
		if !item.Succeeded() {
			stats.Failed++
			continue
		}
		stats.Successful++
		if item.Extraction.HasEssentialInfo {
			stats.EssentialInfoCount++
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.Total)
	}
	if stats.Successful > 0 {
		stats.EssentialInfoRate = float64(stats.EssentialInfoCount) / float64(stats.Successful)
	}
	return stats
}
