package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-extractor/internal/fetch"
)

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// Capabilities are the feature flags reported by HealthCheck.
type Capabilities struct {
	Primary             bool `json:"primary"`
	Fallback            bool `json:"fallback"`
	BatchProcessing     bool `json:"batch_processing"`
	EssentialValidation bool `json:"essential_validation"`
}

// Probe is the result of pinging one path.
type Probe struct {
	Reachable bool   `json:"reachable"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthReport is returned by HealthCheck.
type HealthReport struct {
	Status       string         `json:"status"`
	Strategy     string         `json:"strategy"`
	Capabilities Capabilities   `json:"capabilities"`
	Probes       map[Path]Probe `json:"probes"`
	CheckedAt    time.Time      `json:"checked_at"`
}

// HealthCheck probes both paths concurrently, each bounded by the probe timeout.
// Healthy means both paths answered, degraded exactly one, down neither.
func (s *Service) HealthCheck(ctx context.Context) HealthReport {
	var primary, fallback Probe

	var g errgroup.Group
	g.Go(func() error {
		if s.primary == nil || !s.primary.Enabled() {
			primary = Probe{Error: "primary extraction disabled"}
			return nil
		}
		primary = s.probe(ctx, s.primary.Ping)
		return nil
	})
	g.Go(func() error {
		if s.fallback == nil {
			fallback = Probe{Error: "fallback extraction not configured"}
			return nil
		}
		fallback = s.probe(ctx, s.fallback.Ping)
		return nil
	})
	_ = g.Wait()

	report := HealthReport{
		Strategy: Strategy,
		Capabilities: Capabilities{
			Primary:             primary.Reachable,
			Fallback:            fallback.Reachable,
			BatchProcessing:     true,
			EssentialValidation: true,
		},
		Probes:    map[Path]Probe{PathPrimary: primary, PathFallback: fallback},
		CheckedAt: s.now().UTC(),
	}
	switch {
	case primary.Reachable && fallback.Reachable:
		report.Status = StatusHealthy
	case primary.Reachable || fallback.Reachable:
		report.Status = StatusDegraded
	default:
		report.Status = StatusDown
	}

	s.logger.Debug("health check",
		zap.String("status", report.Status),
		zap.Bool("primary", primary.Reachable),
		zap.Bool("fallback", fallback.Reachable))
	return report
}

func (s *Service) probe(ctx context.Context, ping func(context.Context) error) Probe {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	start := time.Now()
	err := ping(ctx)
	p := Probe{Reachable: err == nil, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		p.Error = err.Error()
	}
	return p
}

// JSRequirement describes whether a URL's board renders client-side.
type JSRequirement struct {
	URL                string `json:"url"`
	Platform           string `json:"platform"`
	RequiresJavaScript bool   `json:"requires_javascript"`
	RecommendedPath    Path   `json:"recommended_path"`
}

// DetectJavaScriptRequirement reports whether url needs a rendering provider. Boards
// that render client-side recommend the primary path; invalid URLs are assumed to.
func (s *Service) DetectJavaScriptRequirement(url string) JSRequirement {
	req := JSRequirement{
		URL:                url,
		Platform:           string(fetch.DetectPlatform(url)),
		RequiresJavaScript: fetch.RequiresJavaScript(url),
		RecommendedPath:    PathFallback,
	}
	if req.RequiresJavaScript {
		req.RecommendedPath = PathPrimary
	}
	return req
}
