package scraper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-extractor/internal/cache"
	"github.com/jonathan/job-extractor/internal/types"
)

type fakeClient struct {
	method   types.ScrapingMethod
	result   func(url string) *types.JobPostingExtraction
	err      error
	pingErr  error
	disabled bool
	calls    int32
}

func (f *fakeClient) Extract(_ context.Context, url string) (*types.JobPostingExtraction, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	ex := f.result(url)
	ex.ScrapingMethod = f.method
	return ex, nil
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }

func (f *fakeClient) Enabled() bool { return !f.disabled }

func complete(url string) *types.JobPostingExtraction {
	return &types.JobPostingExtraction{
		URL:              url,
		Title:            "Dev",
		Responsibilities: []string{"Code"},
		Requirements:     []string{},
		FullText:         "Dev\nCode",
	}
}

func titleOnly(url string) *types.JobPostingExtraction {
	return &types.JobPostingExtraction{URL: url, Title: "Dev", Responsibilities: []string{}, Requirements: []string{}}
}

func networkErr(url string) error {
	return &types.ExtractionError{Kind: types.KindNetwork, URL: url, Message: "connection refused"}
}

func newService(t *testing.T, primary, fallback *fakeClient) *Service {
	t.Helper()
	opts := Options{}
	if primary != nil {
		primary.method = types.MethodPrimary
		opts.Primary = primary
	}
	if fallback != nil {
		fallback.method = types.MethodFallback
		opts.Fallback = fallback
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestNew_RequiresAClient(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestScrapeJobURL_PrimaryWithEssentialInfo(t *testing.T) {
	primary := &fakeClient{result: complete}
	fallback := &fakeClient{result: complete}
	s := newService(t, primary, fallback)

	ex := s.ScrapeJobURL(context.Background(), "https://example.com/job")

	assert.Equal(t, types.MethodPrimary, ex.ScrapingMethod)
	assert.True(t, ex.HasEssentialInfo)
	assert.False(t, ex.Failed())
	assert.Equal(t, int32(0), fallback.calls)

	stats := s.GetStats()
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.PrimarySuccess)
	assert.Equal(t, int64(0), stats.FallbackUsed)
	assert.InDelta(t, 1.0, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 1.0, stats.EssentialInfoRate, 1e-9)
}

func TestScrapeJobURL_PrimaryErrorAlwaysFallsBack(t *testing.T) {
	primary := &fakeClient{err: networkErr("https://example.com/job")}
	fallback := &fakeClient{result: complete}
	s := newService(t, primary, fallback)

	for i := 0; i < 3; i++ {
		ex := s.ScrapeJobURL(context.Background(), "https://example.com/job")
		assert.Equal(t, types.MethodFallback, ex.ScrapingMethod)
		assert.True(t, ex.HasEssentialInfo)
	}

	stats := s.GetStats()
	assert.Equal(t, int64(3), stats.PrimaryFailures)
	assert.Equal(t, int64(3), stats.FallbackUsed)
	assert.Equal(t, int64(0), stats.FallbackFailures)
}

func TestScrapeJobURL_MissingEssentialInfoTriggersFallback(t *testing.T) {
	primary := &fakeClient{result: titleOnly}
	fallback := &fakeClient{result: complete}
	s := newService(t, primary, fallback)

	ex := s.ScrapeJobURL(context.Background(), "https://example.com/job")
	assert.Equal(t, types.MethodFallback, ex.ScrapingMethod)
	assert.Equal(t, int32(1), primary.calls)
	assert.Equal(t, int32(1), fallback.calls)
}

func TestScrapeJobURL_BothFail(t *testing.T) {
	primary := &fakeClient{err: &types.ExtractionError{Kind: types.KindTimeout, URL: "u", Message: "deadline"}}
	fallback := &fakeClient{err: networkErr("u")}
	s := newService(t, primary, fallback)

	ex := s.ScrapeJobURL(context.Background(), "https://Example.com/job#top")

	require.NotNil(t, ex)
	assert.True(t, ex.Failed())
	assert.False(t, ex.HasEssentialInfo)
	assert.Empty(t, ex.FullText)
	assert.Equal(t, "https://example.com/job", ex.URL)
	assert.Equal(t, types.MethodFallback, ex.ScrapingMethod)
	assert.True(t, types.IsKind(ex.Error, types.KindTimeout), "primary error is kept in the chain")
	assert.Contains(t, ex.ErrorMessage, "fallback")

	stats := s.GetStats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.FallbackFailures)
	assert.Equal(t, float64(0), stats.SuccessRate)
	assert.Equal(t, float64(0), stats.EssentialInfoRate)
}

func TestScrapeJobURL_DegradedPrimaryPreferredOverFailedFallback(t *testing.T) {
	primary := &fakeClient{result: titleOnly}
	fallback := &fakeClient{err: networkErr("u")}
	s := newService(t, primary, fallback)

	ex := s.ScrapeJobURL(context.Background(), "https://example.com/job")
	assert.Equal(t, types.MethodPrimary, ex.ScrapingMethod)
	assert.Equal(t, "Dev", ex.Title)
	assert.False(t, ex.HasEssentialInfo)
	assert.True(t, ex.Failed())
	assert.True(t, types.IsKind(ex.Error, types.KindNetwork))
	assert.Contains(t, ex.ErrorMessage, "fallback")

	stats := s.GetStats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(0), stats.Successful)
	assert.Equal(t, int64(1), stats.FallbackFailures)
}

func TestScrapeJobURL_DegradedPrimaryPreferredOverEmptyFallback(t *testing.T) {
	primary := &fakeClient{result: titleOnly}
	fallback := &fakeClient{result: func(url string) *types.JobPostingExtraction {
		return &types.JobPostingExtraction{URL: url, Responsibilities: []string{}, Requirements: []string{}}
	}}
	s := newService(t, primary, fallback)

	ex := s.ScrapeJobURL(context.Background(), "https://example.com/job")
	assert.Equal(t, types.MethodPrimary, ex.ScrapingMethod)
}

func TestScrapeJobURL_FallbackWithoutEssentialInfoIsReturned(t *testing.T) {
	primary := &fakeClient{err: networkErr("u")}
	fallback := &fakeClient{result: titleOnly}
	s := newService(t, primary, fallback)

	ex := s.ScrapeJobURL(context.Background(), "https://example.com/job")
	assert.Equal(t, types.MethodFallback, ex.ScrapingMethod)
	assert.False(t, ex.HasEssentialInfo)
	assert.False(t, ex.Failed())

	stats := s.GetStats()
	assert.Equal(t, int64(1), stats.Successful)
	assert.Equal(t, int64(1), stats.EssentialInfoFailures)
	assert.Equal(t, float64(0), stats.EssentialInfoRate)
}

func TestScrapeJobURL_DisabledPrimaryIsSkipped(t *testing.T) {
	primary := &fakeClient{result: complete, disabled: true}
	fallback := &fakeClient{result: complete}
	s := newService(t, primary, fallback)

	ex := s.ScrapeJobURL(context.Background(), "https://example.com/job")
	assert.Equal(t, types.MethodFallback, ex.ScrapingMethod)
	assert.Equal(t, int32(0), primary.calls)

	stats := s.GetStats()
	assert.Equal(t, int64(0), stats.PrimaryFailures)
	assert.Equal(t, int64(1), stats.FallbackUsed)
}

func TestScrapeJobURL_DisableFallback(t *testing.T) {
	primary := &fakeClient{result: titleOnly}
	fallback := &fakeClient{result: complete}
	s := newService(t, primary, fallback)
	s.disableFallback = true

	ex := s.ScrapeJobURL(context.Background(), "https://example.com/job")
	assert.Equal(t, types.MethodPrimary, ex.ScrapingMethod)
	assert.Equal(t, int32(0), fallback.calls)
}

func TestScrapeJobURL_OnlyFallbackConfigured(t *testing.T) {
	s := newService(t, nil, &fakeClient{err: networkErr("u")})

	ex := s.ScrapeJobURL(context.Background(), "https://example.com/job")
	require.True(t, ex.Failed())
	assert.True(t, types.IsKind(ex.Error, types.KindNetwork))
	assert.NotContains(t, ex.ErrorMessage, "primary")
}

func TestScrapeJobURL_ProcessingTime(t *testing.T) {
	s := newService(t, &fakeClient{result: complete}, nil)
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return clock.Add(time.Duration(calls-1) * 250 * time.Millisecond)
	}

	ex := s.ScrapeJobURL(context.Background(), "https://example.com/job")
	assert.Equal(t, int64(250), ex.ProcessingTimeMs)
	assert.InDelta(t, 250.0, s.GetStats().AverageResponseTimeMs, 1e-9)
}

func TestStats_ConcurrentAndMonotonic(t *testing.T) {
	s := newService(t, &fakeClient{result: complete}, &fakeClient{result: complete})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ScrapeJobURL(context.Background(), "https://example.com/job")
		}()
	}

	var last int64
	for i := 0; i < 10; i++ {
		total := s.GetStats().TotalRequests
		assert.GreaterOrEqual(t, total, last)
		last = total
	}
	wg.Wait()

	assert.Equal(t, int64(50), s.GetStats().TotalRequests)
	assert.Equal(t, int64(50), s.GetStats().PrimarySuccess)
}

func TestResetStats(t *testing.T) {
	s := newService(t, &fakeClient{result: complete}, nil)
	s.ScrapeJobURL(context.Background(), "https://example.com/job")
	require.Equal(t, int64(1), s.GetStats().TotalRequests)

	s.ResetStats()
	stats := s.GetStats()
	assert.Equal(t, int64(0), stats.TotalRequests)
	assert.Equal(t, int64(0), stats.PrimarySuccess)
	assert.False(t, stats.Since.IsZero())
}

func TestResetStats_StartsNewEpoch(t *testing.T) {
	s := newService(t, &fakeClient{result: complete}, nil)
	s.ScrapeJobURL(context.Background(), "https://example.com/job")
	epoch := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return epoch }

	s.ResetStats()
	assert.Equal(t, epoch, s.GetStats().Since)

	s.ScrapeJobURL(context.Background(), "https://example.com/job")
	stats := s.GetStats()
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, epoch, stats.Since)
}

func TestClearCache(t *testing.T) {
	store := cache.NewMemoryStore(10, time.Minute)
	ctx := context.Background()
	store.Put(ctx, "k", complete("k"))

	s, err := New(Options{Fallback: &fakeClient{result: complete}, Cache: store})
	require.NoError(t, err)
	require.NoError(t, s.ClearCache(ctx))
	assert.Equal(t, 0, store.Size())

	s, err = New(Options{Fallback: &fakeClient{result: complete}})
	require.NoError(t, err)
	assert.ErrorIs(t, s.ClearCache(ctx), cache.ErrClearUnsupported)
}

func TestGetStats_IncludesCache(t *testing.T) {
	store := cache.NewMemoryStore(10, time.Minute)
	ctx := context.Background()
	store.Put(ctx, "k", complete("k"))
	store.Get(ctx, "k")
	store.Get(ctx, "missing")

	s, err := New(Options{Fallback: &fakeClient{result: complete}, Cache: store})
	require.NoError(t, err)

	stats := s.GetStats()
	assert.Equal(t, 1, stats.CacheSize)
	assert.InDelta(t, 0.5, stats.CacheHitRate, 1e-9)
}

type recordingMetrics struct {
	mu       sync.Mutex
	attempts []string
	results  int
}

func (m *recordingMetrics) RecordAttempt(path Path, outcome OutcomeKind, _ types.ErrorKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, string(path)+":"+outcome.String())
}

func (m *recordingMetrics) RecordResult(*types.JobPostingExtraction, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results++
}

func TestScrapeJobURL_RecordsMetrics(t *testing.T) {
	metrics := &recordingMetrics{}
	s, err := New(Options{
		Primary:  &fakeClient{result: titleOnly, method: types.MethodPrimary},
		Fallback: &fakeClient{err: errors.New("boom"), method: types.MethodFallback},
		Metrics:  metrics,
	})
	require.NoError(t, err)

	s.ScrapeJobURL(context.Background(), "https://example.com/job")
	assert.Equal(t, []string{"primary:needs_fallback", "fallback:failure"}, metrics.attempts)
	assert.Equal(t, 1, metrics.results)
}
