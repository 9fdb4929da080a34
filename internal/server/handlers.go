package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/job-extractor/internal/cache"
	"github.com/jonathan/job-extractor/internal/extractor"
	"github.com/jonathan/job-extractor/internal/fetch"
	"github.com/jonathan/job-extractor/internal/rendering"
	"github.com/jonathan/job-extractor/internal/scraper"
	"github.com/jonathan/job-extractor/internal/server/middleware"
	"github.com/jonathan/job-extractor/internal/types"
)

const maxBodyBytes = 1 << 20

// Request bodies of POST /extract and POST /extract/batch.
type (
	ExtractRequest = types.ExtractRequest
	BatchRequest   = types.BatchRequest
)

// ExtractResponse carries one extraction and its rendered text.
type ExtractResponse struct {
	Extraction *types.JobPostingExtraction `json:"extraction"`
	Rendered   string                      `json:"rendered"`
	Saved      bool                        `json:"saved"`
}

// BatchResponse is a BatchResult plus the rendered text of its successes.
type BatchResponse struct {
	*extractor.BatchResult
	Rendered string `json:"rendered"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := s.decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	ex, err := s.extractor.Extract(r.Context(), req.URL)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	resp := ExtractResponse{Extraction: ex, Rendered: rendering.RenderExtraction(ex)}
	if ex.Failed() {
		s.jsonResponse(w, HTTPStatus(ex.Error), resp)
		return
	}
	if s.store != nil {
		if _, err := s.store.SaveExtraction(r.Context(), ex); err != nil {
			s.logger.Warn("failed to persist extraction", zap.String("url", ex.URL), zap.Error(err))
		} else {
			resp.Saved = true
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleExtractBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := s.decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	opts := extractor.Options{Concurrency: req.Concurrency}
	if opts.Concurrency == 0 {
		opts.Concurrency = s.cfg.Batch.DefaultConcurrency
	}

	rendered, result, err := s.extractor.ExtractAndRender(r.Context(), req.URLs, opts)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if s.store != nil {
		for _, item := range result.Results {
			if !item.Succeeded() {
				continue
			}
			if _, err := s.store.SaveExtraction(r.Context(), item.Extraction); err != nil {
				s.logger.Warn("failed to persist extraction", zap.String("url", item.URL), zap.Error(err))
			}
		}
	}
	s.jsonResponse(w, http.StatusOK, BatchResponse{BatchResult: result, Rendered: rendered})
}

// handleGetExtractions returns the stored extraction for ?url=, or the most
// recent ones (?limit=) when no url is given.
func (s *Server) handleGetExtractions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.jsonResponse(w, http.StatusNotImplemented, map[string]string{"error": "persistence is not configured"})
		return
	}

	if raw := r.URL.Query().Get("url"); raw != "" {
		url, err := fetch.NormalizeURL(raw)
		if err != nil {
			s.errorResponse(w, &ErrValidation{Field: "url", Message: err.Error()})
			return
		}
		row, err := s.store.GetExtractionByURL(r.Context(), url)
		if err != nil {
			s.errorResponse(w, err)
			return
		}
		if row == nil {
			s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "extraction not found"})
			return
		}
		s.jsonResponse(w, http.StatusOK, row)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.errorResponse(w, &ErrValidation{Field: "limit", Message: "must be a non-negative integer"})
			return
		}
		limit = n
	}
	rows, err := s.store.ListRecentExtractions(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"extractions": rows, "count": len(rows)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.pipeline.HealthCheck(r.Context())
	status := http.StatusOK
	if report.Status == scraper.StatusDown {
		status = http.StatusServiceUnavailable
	}
	s.jsonResponse(w, status, report)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.pipeline.GetStats())
}

// handleResetStats zeroes the counters and starts a new stats epoch; the
// returned snapshot carries the new Since.
func (s *Server) handleResetStats(w http.ResponseWriter, r *http.Request) {
	s.pipeline.ResetStats()
	s.logger.Info("stats reset", zap.String("subject", subjectOf(r)))
	s.jsonResponse(w, http.StatusOK, s.pipeline.GetStats())
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.ClearCache(r.Context()); err != nil {
		if errors.Is(err, cache.ErrClearUnsupported) {
			s.jsonResponse(w, http.StatusNotImplemented, map[string]string{"error": err.Error()})
			return
		}
		s.errorResponse(w, err)
		return
	}
	s.logger.Info("cache cleared", zap.String("subject", subjectOf(r)))
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleJSRequirement reports whether ?url= is on a board that renders client-side.
func (s *Server) handleJSRequirement(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		s.errorResponse(w, &ErrValidation{Field: "url", Message: "is required"})
		return
	}
	s.jsonResponse(w, http.StatusOK, s.pipeline.DetectJavaScriptRequirement(raw))
}

func subjectOf(r *http.Request) string {
	subject, err := middleware.Subject(r)
	if err != nil {
		return ""
	}
	return subject
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &ErrValidation{Message: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ErrValidation{Field: verrs[0].Field(), Message: "failed " + verrs[0].Tag()}
		}
		return &ErrValidation{Message: err.Error()}
	}
	return nil
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	body := map[string]string{"error": err.Error()}
	if kind := types.KindOf(err); kind != "" {
		body["kind"] = string(kind)
	}
	s.jsonResponse(w, HTTPStatus(err), body)
}
