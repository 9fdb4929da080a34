package scraper

import (
	"sync"
	"time"

	"github.com/jonathan/job-extractor/internal/types"
)

// StatsSnapshot is a point-in-time copy of the scraper counters.
type StatsSnapshot struct {
	TotalRequests         int64     `json:"total_requests"`
	Successful            int64     `json:"successful"`
	Failed                int64     `json:"failed"`
	PrimarySuccess        int64     `json:"primary_success"`
	PrimaryFailures       int64     `json:"primary_failures"`
	FallbackUsed          int64     `json:"fallback_used"`
	FallbackFailures      int64     `json:"fallback_failures"`
	EssentialInfoSuccess  int64     `json:"essential_info_success"`
	EssentialInfoFailures int64     `json:"essential_info_failures"`
	TotalResponseTimeMs   int64     `json:"total_response_time_ms"`
	SuccessRate           float64   `json:"success_rate"`
	EssentialInfoRate     float64   `json:"essential_info_rate"`
	AverageResponseTimeMs float64   `json:"average_response_time_ms"`
	CacheSize             int       `json:"cache_size"`
	CacheHitRate          float64   `json:"cache_hit_rate"`
	Since                 time.Time `json:"since"`
}

type stats struct {
	mu sync.Mutex

	total                 int64
	successful            int64
	failed                int64
	primarySuccess        int64
	primaryFailures       int64
	fallbackUsed          int64
	fallbackFailures      int64
	essentialInfoSuccess  int64
	essentialInfoFailures int64
	totalResponseTime     time.Duration
	since                 time.Time
}

// record applies one terminal transition.
func (s *stats) record(r *run, result *types.JobPostingExtraction, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.since.IsZero() {
		s.since = time.Now()
	}
	s.total++
	s.totalResponseTime += elapsed

	if p := r.primary; p != nil && !p.skipped {
		if p.Kind == OutcomeSuccess {
			s.primarySuccess++
		} else {
			s.primaryFailures++
		}
	}
	if f := r.fallback; f != nil {
		s.fallbackUsed++
		if f.Kind == OutcomeFailure {
			s.fallbackFailures++
		}
	}

	if result.Failed() {
		s.failed++
	} else {
		s.successful++
	}
	if result.HasEssentialInfo {
		s.essentialInfoSuccess++
	} else {
		s.essentialInfoFailures++
	}
}

func (s *stats) snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		TotalRequests:         s.total,
		Successful:            s.successful,
		Failed:                s.failed,
		PrimarySuccess:        s.primarySuccess,
		PrimaryFailures:       s.primaryFailures,
		FallbackUsed:          s.fallbackUsed,
		FallbackFailures:      s.fallbackFailures,
		EssentialInfoSuccess:  s.essentialInfoSuccess,
		EssentialInfoFailures: s.essentialInfoFailures,
		TotalResponseTimeMs:   s.totalResponseTime.Milliseconds(),
		Since:                 s.since,
	}
	if s.total > 0 {
		snap.SuccessRate = float64(s.successful) / float64(s.total)
		snap.AverageResponseTimeMs = float64(s.totalResponseTime.Milliseconds()) / float64(s.total)
	}
	if s.successful > 0 {
		snap.EssentialInfoRate = float64(s.essentialInfoSuccess) / float64(s.successful)
	}
	return snap
}

func (s *stats) reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total, s.successful, s.failed = 0, 0, 0
	s.primarySuccess, s.primaryFailures = 0, 0
	s.fallbackUsed, s.fallbackFailures = 0, 0
	s.essentialInfoSuccess, s.essentialInfoFailures = 0, 0
	s.totalResponseTime = 0
	s.since = now
}
