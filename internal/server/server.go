// Package server provides the HTTP API for job-posting extraction.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jonathan/job-extractor/internal/config"
	"github.com/jonathan/job-extractor/internal/db"
	"github.com/jonathan/job-extractor/internal/extractor"
	"github.com/jonathan/job-extractor/internal/observability"
	"github.com/jonathan/job-extractor/internal/scraper"
	"github.com/jonathan/job-extractor/internal/server/middleware"
	"github.com/jonathan/job-extractor/internal/server/ratelimit"
	"github.com/jonathan/job-extractor/internal/types"
)

// Pipeline is the scraper surface the API reports on and operates; *scraper.Service implements it.
type Pipeline interface {
	HealthCheck(ctx context.Context) scraper.HealthReport
	GetStats() scraper.StatsSnapshot
	ResetStats()
	ClearCache(ctx context.Context) error
	DetectJavaScriptRequirement(url string) scraper.JSRequirement
}

// Store persists extractions; *db.DB implements it.
type Store interface {
	SaveExtraction(ctx context.Context, ex *types.JobPostingExtraction) (*db.Extraction, error)
	GetExtractionByURL(ctx context.Context, url string) (*db.Extraction, error)
	ListRecentExtractions(ctx context.Context, limit int) ([]db.Extraction, error)
}

// Deps are the components the server routes to. Store, Metrics and Gatherer are optional.
type Deps struct {
	Extractor *extractor.Extractor
	Pipeline  Pipeline
	Store     Store
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	cfg         *config.Config
	httpServer  *http.Server
	router      chi.Router
	extractor   *extractor.Extractor
	pipeline    Pipeline
	store       Store
	metrics     *observability.Metrics
	gatherer    prometheus.Gatherer
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	validate    *validator.Validate
	logger      *zap.Logger
}

// New wires the router. It does not start listening.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is required")
	}
	if deps.Extractor == nil || deps.Pipeline == nil {
		return nil, errors.New("extractor and pipeline are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:       cfg,
		extractor: deps.Extractor,
		pipeline:  deps.Pipeline,
		store:     deps.Store,
		metrics:   deps.Metrics,
		gatherer:  deps.Gatherer,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.Named("server"),
	}
	s.rateLimiter = ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:         cfg.RateLimit.Enabled,
		DefaultLimit:    cfg.RateLimit.DefaultLimit,
		DefaultWindow:   cfg.RateLimit.DefaultWindow,
		CleanupInterval: cfg.RateLimit.CleanupInterval,
		Whitelist:       ratelimit.IPSet(cfg.RateLimit.Whitelist),
		Blacklist:       ratelimit.IPSet(cfg.RateLimit.Blacklist),
		EndpointConfigs: ratelimit.ExtractionEndpoints(cfg.RateLimit.ExtractLimit, cfg.RateLimit.BatchLimit),
	})
	if cfg.Auth.Enabled() {
		s.jwtService = NewJWTService(cfg.Auth)
	}

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(s.logger))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(s.withRateLimit)

	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if s.jwtService != nil {
			r.Use(middleware.RequireBearer(s.jwtService.AsTokenValidator()))
		}
		r.Post("/extract", s.handleExtract)
		r.Post("/extract/batch", s.handleExtractBatch)
		r.Get("/extractions", s.handleGetExtractions)
		r.Get("/stats", s.handleStats)
		r.Post("/stats/reset", s.handleResetStats)
		r.Post("/cache/clear", s.handleClearCache)
		r.Get("/js-requirement", s.handleJSRequirement)
	})
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			if info.RetryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Seconds())+1))
			}
			s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
				"error":     "rate_limit_exceeded",
				"message":   "Rate limit exceeded. Please try again later.",
				"limit":     info.Limit,
				"remaining": info.Remaining,
				"reset_at":  info.ResetTime.UTC().Format(time.RFC3339),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID is the remote IP. Forwarded headers are ignored since they are
// client-controlled without a trusted proxy in front.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
}
