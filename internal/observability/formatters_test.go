package observability

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-extractor/internal/extractor"
	"github.com/jonathan/job-extractor/internal/scraper"
	"github.com/jonathan/job-extractor/internal/types"
)

func TestPrintExtraction(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintExtraction(&types.JobPostingExtraction{
		URL:              "https://example.com/job",
		Title:            "Senior Engineer",
		Responsibilities: []string{"a", "b", "c", "d", "e", "f", "g"},
		Requirements:     []string{"Go"},
		ScrapingMethod:   types.MethodPrimary,
		HasEssentialInfo: true,
		Language:         "en",
	})
	output := buf.String()

	assert.Contains(t, output, "EXTRACTION")
	assert.Contains(t, output, "Senior Engineer")
	assert.Contains(t, output, "primary")
	assert.Contains(t, output, "Responsibilities (7)")
	assert.Contains(t, output, "... and 2 more")
	assert.Contains(t, output, "Essential: ✓")
}

func TestPrintExtraction_Failed(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintExtraction(types.NewFailedExtraction("https://example.com/job", errors.New("both paths down")))

	assert.Contains(t, buf.String(), "EXTRACTION FAILED")
	assert.Contains(t, buf.String(), "both paths down")
}

func TestPrintExtraction_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintExtraction(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBatch(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBatch(&extractor.BatchResult{
		Results: []extractor.BatchItem{
			{URL: "https://a.test", Extraction: &types.JobPostingExtraction{HasEssentialInfo: true}},
			{URL: "https://b.test", Extraction: &types.JobPostingExtraction{}},
			{URL: "bad", Error: errors.New("invalid")},
		},
		Stats: extractor.BatchStats{Total: 3, Successful: 2, Failed: 1, SuccessRate: 2.0 / 3, EssentialInfoCount: 1, EssentialInfoRate: 0.5},
	})
	output := buf.String()

	assert.Contains(t, output, "BATCH SUMMARY")
	assert.Contains(t, output, "✓ https://a.test")
	assert.Contains(t, output, "~ https://b.test (incomplete)")
	assert.Contains(t, output, "✗ bad")
	assert.Contains(t, output, "66.7%")
	assert.Contains(t, output, "1/2 (50.0%)")
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStats(scraper.StatsSnapshot{TotalRequests: 4, SuccessRate: 0.75, CacheSize: 3})

	assert.Contains(t, buf.String(), "SCRAPER STATS")
	assert.Contains(t, buf.String(), "75.0%")
	assert.Contains(t, buf.String(), "3 entries")
}

func TestPrintHealth(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintHealth(scraper.HealthReport{
		Status:   scraper.StatusDegraded,
		Strategy: scraper.Strategy,
		Probes: map[scraper.Path]scraper.Probe{
			scraper.PathPrimary:  {Error: "primary extraction disabled"},
			scraper.PathFallback: {Reachable: true, LatencyMs: 12},
		},
	})

	assert.Contains(t, buf.String(), "DEGRADED")
	assert.Contains(t, buf.String(), "✗ primary")
	assert.Contains(t, buf.String(), "✓ fallback")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ação...", truncate("açãozinha longa", 7))
}
