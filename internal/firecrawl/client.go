// Package firecrawl is the primary extraction path: a client for the Firecrawl scrape API
// that returns job postings as markdown plus schema-shaped JSON.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/job-extractor/internal/cache"
	"github.com/jonathan/job-extractor/internal/fetch"
	"github.com/jonathan/job-extractor/internal/types"
)

const (
	// DefaultBaseURL is the hosted Firecrawl API
	DefaultBaseURL = "https://api.firecrawl.dev"
	// DefaultTimeout bounds one scrape request
	DefaultTimeout = 30 * time.Second
	// DefaultWaitFor is how long Firecrawl lets the page render before scraping
	DefaultWaitFor = 3 * time.Second
	// DefaultMaxAttempts is the first call plus one retry
	DefaultMaxAttempts = 2
	// DefaultBaseDelay is the first retry delay
	DefaultBaseDelay = time.Second
	// DefaultMaxDelay caps the retry delay
	DefaultMaxDelay = 10 * time.Second

	maxResponseBytes = 10 * 1024 * 1024
)

// Options configures a Client.
type Options struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	WaitFor         time.Duration
	OnlyMainContent bool
	IncludeTags     []string
	ExcludeTags     []string

	// MaxAttempts counts the first call; values below 1 mean a single attempt.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	HTTPClient *http.Client
	Cache      cache.Store
	Logger     *zap.Logger
}

// DefaultOptions returns options for the hosted API without credentials.
func DefaultOptions() *Options {
	return &Options{
		BaseURL:         DefaultBaseURL,
		Timeout:         DefaultTimeout,
		WaitFor:         DefaultWaitFor,
		OnlyMainContent: true,
		IncludeTags:     []string{"h1", "h2", "h3", "p", "ul", "ol", "li", "div"},
		ExcludeTags:     []string{"nav", "footer", "header", "aside", "script", "style"},
		MaxAttempts:     DefaultMaxAttempts,
		BaseDelay:       DefaultBaseDelay,
		MaxDelay:        DefaultMaxDelay,
	}
}

// Client calls the Firecrawl scrape endpoint. Results are cached by normalized URL and
// concurrent misses for one URL share a single request.
type Client struct {
	opts   Options
	http   *http.Client
	cache  cache.Store
	group  singleflight.Group
	logger *zap.Logger
	sleep  func(context.Context, time.Duration) error
}

// New creates a Client. A nil cache gets an in-memory store with default limits.
func New(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}

	httpClient := o.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	store := o.Cache
	if store == nil {
		store = cache.NewMemoryStore(cache.DefaultMaxEntries, cache.DefaultTTL)
	}
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		opts:   o,
		http:   httpClient,
		cache:  store,
		logger: logger.Named("firecrawl"),
		sleep:  sleepContext,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.opts.APIKey != ""
}

// Cache exposes the client's store for stats reporting.
func (c *Client) Cache() cache.Store {
	return c.cache
}

// Extract returns the job posting at rawURL. Cache hits never touch the network.
// Errors are *types.ExtractionError.
func (c *Client) Extract(ctx context.Context, rawURL string) (*types.JobPostingExtraction, error) {
	key, err := fetch.NormalizeURL(rawURL)
	if err != nil {
		return nil, &types.ExtractionError{Kind: types.KindInvalidInput, URL: rawURL, Message: "invalid URL", Cause: err}
	}
	if !c.Enabled() {
		return nil, &types.ExtractionError{Kind: types.KindAPIError, URL: key, Message: "Firecrawl API key not configured"}
	}

	if cached, ok := c.cache.Get(ctx, key); ok {
		c.logger.Debug("cache hit", zap.String("url", key))
		cached.ScrapingMethod = types.MethodPrimary
		return cached, nil
	}

	// The shared call outlives any one caller; each attempt is still bounded by opts.Timeout.
	callCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		ex, err := c.scrapeWithRetry(callCtx, key)
		if err != nil {
			return nil, err
		}
		c.cache.Put(callCtx, key, ex)
		return ex, nil
	})

	select {
	case <-ctx.Done():
		return nil, classifyTransportError(ctx, key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("shared in-flight request", zap.String("url", key))
		}
		return res.Val.(*types.JobPostingExtraction).Clone(), nil
	}
}

func (c *Client) scrapeWithRetry(ctx context.Context, url string) (*types.JobPostingExtraction, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		ex, err := c.scrape(ctx, url)
		if err == nil {
			return ex, nil
		}
		lastErr = err

		var extErr *types.ExtractionError
		if !errors.As(err, &extErr) || !extErr.Retryable() || attempt == c.opts.MaxAttempts {
			break
		}
		delay := Backoff(attempt, c.opts.BaseDelay, c.opts.MaxDelay)
		c.logger.Warn("scrape failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := c.sleep(ctx, delay); err != nil {
			break
		}
	}
	return nil, lastErr
}

// Backoff returns min(base*2^(attempt-1), ceiling).
func Backoff(attempt int, base, ceiling time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if ceiling <= 0 {
		ceiling = DefaultMaxDelay
	}
	delay := base
	for i := 1; i < attempt && delay < ceiling; i++ {
		delay *= 2
	}
	return min(delay, ceiling)
}

func (c *Client) scrape(ctx context.Context, url string) (*types.JobPostingExtraction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	body, err := json.Marshal(c.buildRequest(url))
	if err != nil {
		return nil, &types.ExtractionError{Kind: types.KindAPIError, URL: url, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, &types.ExtractionError{Kind: types.KindAPIError, URL: url, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransportError(ctx, url, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &types.ExtractionError{Kind: types.KindRateLimited, URL: url, Message: "rate limited by Firecrawl", StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &types.ExtractionError{
			Kind:       types.KindAPIError,
			URL:        url,
			Message:    apiErrorMessage(data, resp.Status),
			StatusCode: resp.StatusCode,
		}
	}

	var parsed scrapeResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &types.ExtractionError{Kind: types.KindAPIError, URL: url, Message: "undecodable response body", StatusCode: resp.StatusCode, Cause: err}
	}
	if !parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = "scrape reported failure"
		}
		return nil, &types.ExtractionError{Kind: types.KindAPIError, URL: url, Message: msg, StatusCode: resp.StatusCode}
	}

	ex := c.mapResponse(url, &parsed.Data)
	c.logger.Debug("scraped",
		zap.String("url", url),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("essential", ex.HasEssentialInfo))
	return ex, nil
}

func classifyTransportError(ctx context.Context, url string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &types.ExtractionError{Kind: types.KindTimeout, URL: url, Message: "request timed out", Cause: err}
	}
	return &types.ExtractionError{Kind: types.KindNetwork, URL: url, Message: "request failed", Cause: err}
}

func apiErrorMessage(body []byte, status string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("unexpected response %s", status)
}

// Ping checks that the API host answers HTTP at all; any status counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("firecrawl unreachable: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
