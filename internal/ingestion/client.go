// Package ingestion is the fallback extraction path: a plain HTTP fetch of the posting
// followed by heuristic HTML parsing, with optional LLM structuring when heuristics come
// up short.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/job-extractor/internal/fetch"
	"github.com/jonathan/job-extractor/internal/llm"
	"github.com/jonathan/job-extractor/internal/types"
	"github.com/jonathan/job-extractor/internal/validation"
)

// DefaultPingURL is probed by Ping to check outbound connectivity.
const DefaultPingURL = "https://httpbin.org/status/200"

// Options configures a Client.
type Options struct {
	Fetch   *fetch.Options
	PingURL string
	// LLM, when set, fills fields the heuristics could not find.
	LLM    llm.Client
	Logger *zap.Logger
}

// DefaultOptions returns browser-like fetch settings and the default ping URL.
func DefaultOptions() *Options {
	return &Options{
		Fetch:   fetch.DefaultOptions(),
		PingURL: DefaultPingURL,
	}
}

// Client extracts job postings without the paid API.
type Client struct {
	fetchOpts *fetch.Options
	pingURL   string
	llm       llm.Client
	languages *languageDetector
	logger    *zap.Logger
}

// New creates a Client.
func New(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	fetchOpts := opts.Fetch
	if fetchOpts == nil {
		fetchOpts = fetch.DefaultOptions()
	}
	pingURL := opts.PingURL
	if pingURL == "" {
		pingURL = DefaultPingURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		fetchOpts: fetchOpts,
		pingURL:   pingURL,
		llm:       opts.LLM,
		languages: newLanguageDetector(),
		logger:    logger.Named("fallback"),
	}
}

// Extract fetches rawURL and parses it. Parsing never fails on a fetched page; fields the
// heuristics cannot find are left empty. Errors are *types.ExtractionError.
func (c *Client) Extract(ctx context.Context, rawURL string) (*types.JobPostingExtraction, error) {
	url, err := fetch.NormalizeURL(rawURL)
	if err != nil {
		return nil, &types.ExtractionError{Kind: types.KindInvalidInput, URL: rawURL, Message: "invalid URL", Cause: err}
	}

	result, err := fetch.URL(ctx, url, c.fetchOpts)
	if err != nil {
		return nil, fetchError(url, err)
	}

	page, err := ParsePage(result.HTML, result.FinalURL)
	if err != nil {
		return nil, &types.ExtractionError{Kind: types.KindNetwork, URL: url, Message: "unreadable HTML", Cause: err}
	}
	c.logger.Debug("parsed page",
		zap.String("url", url),
		zap.String("strategy", string(page.Strategy)),
		zap.Int("responsibilities", len(page.Sections.Responsibilities)),
		zap.Int("requirements", len(page.Sections.Requirements)))

	ex := &types.JobPostingExtraction{
		URL:              url,
		Title:            page.Title,
		Responsibilities: nonNil(page.Sections.Responsibilities),
		Requirements:     nonNil(page.Sections.Requirements),
		Description:      page.Sections.Description,
		FullText:         page.Markdown,
		ScrapingMethod:   types.MethodFallback,
		Platform:         string(fetch.DetectPlatform(url)),
		Language:         c.languages.Detect(page.Markdown),
	}

	if !validation.HasEssentialInfo(ex) && c.llm != nil && page.Markdown != "" {
		c.structureWithLLM(ctx, ex)
	}
	validation.Apply(ex)
	return ex, nil
}

// structureWithLLM fills empty fields from the model. Failures are logged and ignored.
func (c *Client) structureWithLLM(ctx context.Context, ex *types.JobPostingExtraction) {
	fields, err := llm.StructureJobPosting(ctx, c.llm, ex.FullText)
	if err != nil {
		c.logger.Warn("LLM structuring failed", zap.String("url", ex.URL), zap.Error(err))
		return
	}
	if ex.Title == "" {
		ex.Title = fields.Title
	}
	if len(ex.Responsibilities) == 0 && len(fields.Responsibilities) > 0 {
		ex.Responsibilities = fields.Responsibilities
	}
	if len(ex.Requirements) == 0 && len(fields.Requirements) > 0 {
		ex.Requirements = fields.Requirements
	}
	if ex.Description == "" {
		ex.Description = fields.Description
	}
}

func fetchError(url string, err error) error {
	kind := types.KindNetwork
	status := 0
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		status = fetchErr.StatusCode
		if fetchErr.Timeout() {
			kind = types.KindTimeout
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = types.KindTimeout
	}
	return &types.ExtractionError{Kind: kind, URL: url, Message: "page fetch failed", StatusCode: status, Cause: err}
}

// Ping checks outbound connectivity against the configured probe URL.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pingURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fallback probe failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("fallback probe returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func textOf(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
