package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonathan/job-extractor/internal/cache"
	"github.com/jonathan/job-extractor/internal/scraper"
	"github.com/jonathan/job-extractor/internal/types"
)

// Extraction result labels.
const (
	ResultComplete   = "complete"
	ResultIncomplete = "incomplete"
	ResultFailed     = "failed"
)

// Metrics owns the pipeline's Prometheus collectors. It implements scraper.Recorder.
type Metrics struct {
	extractions   *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	attempts      *prometheus.CounterVec
	clientErrors  *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// NewMetrics registers the collectors against reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_extractions_total",
			Help: "Extractions finished, partitioned by scraping method and result.",
		}, []string{"method", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_extraction_duration_seconds",
			Help:    "Wall time per extraction including fallback.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"method"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_extraction_attempts_total",
			Help: "Client attempts partitioned by path and outcome.",
		}, []string{"path", "outcome"}),
		clientErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_extraction_errors_total",
			Help: "Client errors partitioned by path and error kind.",
		}, []string{"path", "kind"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_extraction_cache_lookups_total",
			Help: "Primary cache lookups partitioned by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests partitioned by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies partitioned by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route"}),
	}
	for _, collector := range []prometheus.Collector{
		m.extractions,
		m.duration,
		m.attempts,
		m.clientErrors,
		m.cacheLookups,
		m.httpRequests,
		m.httpDurations,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register metrics collector: %w", err)
		}
	}
	return m, nil
}

// RecordAttempt counts one client attempt and, for failures, its error kind.
func (m *Metrics) RecordAttempt(path scraper.Path, outcome scraper.OutcomeKind, kind types.ErrorKind) {
	m.attempts.WithLabelValues(string(path), outcome.String()).Inc()
	if outcome == scraper.OutcomeFailure {
		if kind == "" {
			kind = "unknown"
		}
		m.clientErrors.WithLabelValues(string(path), string(kind)).Inc()
	}
}

// RecordResult counts a finished extraction and observes its duration.
func (m *Metrics) RecordResult(ex *types.JobPostingExtraction, elapsed time.Duration) {
	result := ResultIncomplete
	switch {
	case ex.Failed():
		result = ResultFailed
	case ex.HasEssentialInfo:
		result = ResultComplete
	}
	method := string(types.MethodFallback)
	if ex != nil && ex.ScrapingMethod != "" {
		method = string(ex.ScrapingMethod)
	}
	m.extractions.WithLabelValues(method, result).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// InstrumentCache wraps store so every lookup is counted as a hit or miss.
func (m *Metrics) InstrumentCache(store cache.Store) cache.Store {
	return &instrumentedStore{Store: store, lookups: m.cacheLookups}
}

type instrumentedStore struct {
	cache.Store
	lookups *prometheus.CounterVec
}

func (s *instrumentedStore) Get(ctx context.Context, key string) (*types.JobPostingExtraction, bool) {
	v, ok := s.Store.Get(ctx, key)
	if ok {
		s.lookups.WithLabelValues("hit").Inc()
	} else {
		s.lookups.WithLabelValues("miss").Inc()
	}
	return v, ok
}

// Clear forwards to the wrapped store when it supports clearing.
func (s *instrumentedStore) Clear(ctx context.Context) error {
	c, ok := s.Store.(cache.Clearer)
	if !ok {
		return cache.ErrClearUnsupported
	}
	return c.Clear(ctx)
}

// Middleware observes every HTTP request by its chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDurations.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
