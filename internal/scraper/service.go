// Package scraper combines the primary extraction API and the fallback fetch path
// into a single per-URL operation that always returns a result.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/job-extractor/internal/cache"
	"github.com/jonathan/job-extractor/internal/fetch"
	"github.com/jonathan/job-extractor/internal/types"
	"github.com/jonathan/job-extractor/internal/validation"
)

// Strategy is reported by HealthCheck.
const Strategy = "FIRECRAWL_FIRST"

// DefaultProbeTimeout bounds each HealthCheck probe.
const DefaultProbeTimeout = 5 * time.Second

// Extractor turns a URL into an extraction. Errors are *types.ExtractionError.
type Extractor interface {
	Extract(ctx context.Context, url string) (*types.JobPostingExtraction, error)
	Ping(ctx context.Context) error
}

// Primary is an Extractor that can be switched off by configuration.
type Primary interface {
	Extractor
	Enabled() bool
}

// Path names one of the two extraction clients.
type Path string

// Paths.
const (
	PathPrimary  Path = "primary"
	PathFallback Path = "fallback"
)

// Recorder receives per-attempt and per-result observations. It is implemented by
// the metrics layer; a nil Recorder records nothing.
type Recorder interface {
	RecordAttempt(path Path, outcome OutcomeKind, kind types.ErrorKind)
	RecordResult(ex *types.JobPostingExtraction, elapsed time.Duration)
}

// Options configures a Service.
type Options struct {
	Primary  Primary
	Fallback Extractor
	// Cache is the primary client's store, reported by GetStats.
	Cache cache.Store
	// DisableFallback returns degraded primary results instead of trying the fallback.
	DisableFallback bool
	ProbeTimeout    time.Duration
	Metrics         Recorder
	Logger          *zap.Logger
}

// Service is the process-wide scraper. It owns the clients, cache reference and
// stats; construct one per process and share it.
type Service struct {
	primary         Primary
	fallback        Extractor
	cache           cache.Store
	disableFallback bool
	probeTimeout    time.Duration
	metrics         Recorder
	logger          *zap.Logger
	stats           *stats
	now             func() time.Time
}

// New creates a Service. At least one of Primary and Fallback must be set.
func New(opts Options) (*Service, error) {
	if opts.Primary == nil && opts.Fallback == nil {
		return nil, errors.New("scraper: no extraction client configured")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	probe := opts.ProbeTimeout
	if probe <= 0 {
		probe = DefaultProbeTimeout
	}
	return &Service{
		primary:         opts.Primary,
		fallback:        opts.Fallback,
		cache:           opts.Cache,
		disableFallback: opts.DisableFallback,
		probeTimeout:    probe,
		metrics:         opts.Metrics,
		logger:          logger.Named("scraper"),
		stats:           &stats{},
		now:             time.Now,
	}, nil
}

type state int

const (
	stateTryPrimary state = iota
	stateTryFallback
	stateDone
)

// run holds what one ScrapeJobURL call learned on its way to DONE.
type run struct {
	url      string
	primary  *Outcome
	fallback *Outcome
}

// ScrapeJobURL extracts rawURL, trying the primary client first and the fallback when
// the primary fails or lacks essential info. It never returns nil: when both paths
// fail the result is a minimal extraction with Error set.
func (s *Service) ScrapeJobURL(ctx context.Context, rawURL string) *types.JobPostingExtraction {
	start := s.now()
	r := &run{url: rawURL}

	st := stateTryPrimary
	for st != stateDone {
		switch st {
		case stateTryPrimary:
			out := s.tryPrimary(ctx, rawURL)
			r.primary = &out
			if out.Kind == OutcomeSuccess || s.fallback == nil || s.disableFallback {
				st = stateDone
			} else {
				st = stateTryFallback
			}
		case stateTryFallback:
			out := s.tryFallback(ctx, rawURL)
			r.fallback = &out
			st = stateDone
		}
	}

	result := s.resolve(r)
	elapsed := s.now().Sub(start)
	result.ProcessingTimeMs = elapsed.Milliseconds()
	s.stats.record(r, result, elapsed)
	if s.metrics != nil {
		s.metrics.RecordResult(result, elapsed)
	}

	s.logger.Info("extraction finished",
		zap.String("url", rawURL),
		zap.String("method", string(result.ScrapingMethod)),
		zap.Bool("essential_info", result.HasEssentialInfo),
		zap.Bool("failed", result.Failed()),
		zap.Duration("elapsed", elapsed))
	return result
}

func (s *Service) tryPrimary(ctx context.Context, url string) Outcome {
	if s.primary == nil || !s.primary.Enabled() {
		return Outcome{Kind: OutcomeFailure, Err: &types.ExtractionError{
			Kind:    types.KindAPIError,
			URL:     url,
			Message: "primary extraction disabled",
		}, skipped: true}
	}

	out := classify(s.primary.Extract(ctx, url))
	s.observe(PathPrimary, out)
	switch out.Kind {
	case OutcomeNeedsFallback:
		s.logger.Warn("primary result missing essential info", zap.Error(validation.Check(out.Extraction)))
	case OutcomeFailure:
		s.logger.Warn("primary extraction failed", zap.String("url", url), zap.Error(out.Err))
	}
	return out
}

func (s *Service) tryFallback(ctx context.Context, url string) Outcome {
	ex, err := s.fallback.Extract(ctx, url)
	out := classify(ex, err)
	// The fallback is the last resort: any result it returns ends the attempt.
	if out.Kind == OutcomeNeedsFallback {
		out.Kind = OutcomeSuccess
	}
	s.observe(PathFallback, out)
	if out.Kind == OutcomeFailure {
		s.logger.Warn("fallback extraction failed", zap.String("url", url), zap.Error(out.Err))
	}
	return out
}

func (s *Service) observe(path Path, out Outcome) {
	if s.metrics != nil {
		s.metrics.RecordAttempt(path, out.Kind, types.KindOf(out.Err))
	}
}

// resolve picks the result handed to the caller once the state machine is DONE.
func (s *Service) resolve(r *run) *types.JobPostingExtraction {
	p, f := r.primary, r.fallback

	if p != nil && p.Kind == OutcomeSuccess {
		return p.Extraction
	}
	partial := p != nil && p.Extraction != nil

	if f != nil && f.Kind == OutcomeSuccess {
		if !f.Extraction.HasEssentialInfo && partial {
			return p.Extraction
		}
		return f.Extraction
	}
	if partial {
		if f != nil && f.Err != nil {
			p.Extraction.SetError(fmt.Errorf("fallback: %w", f.Err))
		}
		return p.Extraction
	}

	var errs []error
	if p != nil && p.Err != nil && !p.skipped {
		errs = append(errs, fmt.Errorf("primary: %w", p.Err))
	}
	if f != nil && f.Err != nil {
		errs = append(errs, fmt.Errorf("fallback: %w", f.Err))
	}
	if len(errs) == 0 && p != nil {
		errs = append(errs, p.Err)
	}
	url := r.url
	if normalized, err := fetch.NormalizeURL(r.url); err == nil {
		url = normalized
	}
	return types.NewFailedExtraction(url, errors.Join(errs...))
}

// GetStats returns the current counters with derived rates.
func (s *Service) GetStats() StatsSnapshot {
	snap := s.stats.snapshot()
	if s.cache != nil {
		snap.CacheSize = s.cache.Size()
		snap.CacheHitRate = s.cache.HitRate()
	}
	return snap
}

// ResetStats zeroes the counters and starts a new epoch at Since. Counters never
// decrease between resets; it is an operator action, never called by the pipeline.
func (s *Service) ResetStats() {
	s.stats.reset(s.now())
}

// ClearCache drops every cached primary result.
func (s *Service) ClearCache(ctx context.Context) error {
	c, ok := s.cache.(cache.Clearer)
	if !ok {
		return cache.ErrClearUnsupported
	}
	if err := c.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("cache cleared")
	return nil
}
