// Package observability provides Prometheus collectors for the extraction pipeline and
// formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/job-extractor/internal/extractor"
	"github.com/jonathan/job-extractor/internal/scraper"
	"github.com/jonathan/job-extractor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// PrintExtraction outputs a summary of one extraction.
func (p *Printer) PrintExtraction(ex *types.JobPostingExtraction) {
	if ex == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:       %s\n", ex.URL))
	sb.WriteString(fmt.Sprintf("Method:    %s\n", ex.ScrapingMethod))
	if ex.Platform != "" {
		sb.WriteString(fmt.Sprintf("Platform:  %s\n", ex.Platform))
	}
	if ex.Language != "" {
		sb.WriteString(fmt.Sprintf("Language:  %s\n", ex.Language))
	}
	sb.WriteString(fmt.Sprintf("Time:      %dms\n", ex.ProcessingTimeMs))

	if ex.Failed() {
		sb.WriteString(fmt.Sprintf("\n✗ %s", ex.ErrorMessage))
		p.printBox("EXTRACTION FAILED", sb.String())
		return
	}

	sb.WriteString(fmt.Sprintf("Title:     %s\n", ex.Title))
	essential := "✗"
	if ex.HasEssentialInfo {
		essential = "✓"
	}
	sb.WriteString(fmt.Sprintf("Essential: %s\n", essential))
	writeItems(&sb, "Responsibilities", ex.Responsibilities)
	writeItems(&sb, "Requirements", ex.Requirements)

	p.printBox("EXTRACTION", strings.TrimSuffix(sb.String(), "\n"))
}

func writeItems(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n%s (%d):\n", label, len(items)))
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

// PrintBatch outputs per-URL status lines and the batch summary.
func (p *Printer) PrintBatch(result *extractor.BatchResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	for _, item := range result.Results {
		switch {
		case item.Succeeded() && item.Extraction.HasEssentialInfo:
			sb.WriteString(fmt.Sprintf("✓ %s\n", item.URL))
		case item.Succeeded():
			sb.WriteString(fmt.Sprintf("~ %s (incomplete)\n", item.URL))
		default:
			sb.WriteString(fmt.Sprintf("✗ %s\n", item.URL))
		}
	}

	s := result.Stats
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total:      %d\n", s.Total))
	sb.WriteString(fmt.Sprintf("Successful: %d (%.1f%%)\n", s.Successful, s.SuccessRate*100))
	sb.WriteString(fmt.Sprintf("Failed:     %d\n", s.Failed))
	sb.WriteString(fmt.Sprintf("Essential:  %d/%d (%.1f%%)", s.EssentialInfoCount, s.Successful, s.EssentialInfoRate*100))

	p.printBox("BATCH SUMMARY", sb.String())
}

// PrintStats outputs the scraper counters.
func (p *Printer) PrintStats(stats scraper.StatsSnapshot) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Requests:        %d\n", stats.TotalRequests))
	sb.WriteString(fmt.Sprintf("Success rate:    %.1f%%\n", stats.SuccessRate*100))
	sb.WriteString(fmt.Sprintf("Essential rate:  %.1f%%\n", stats.EssentialInfoRate*100))
	sb.WriteString(fmt.Sprintf("Primary:         %d ok / %d failed\n", stats.PrimarySuccess, stats.PrimaryFailures))
	sb.WriteString(fmt.Sprintf("Fallback:        %d used / %d failed\n", stats.FallbackUsed, stats.FallbackFailures))
	sb.WriteString(fmt.Sprintf("Avg response:    %.0fms\n", stats.AverageResponseTimeMs))
	sb.WriteString(fmt.Sprintf("Cache:           %d entries, %.1f%% hits", stats.CacheSize, stats.CacheHitRate*100))

	p.printBox("SCRAPER STATS", sb.String())
}

// PrintHealth outputs a health report.
func (p *Printer) PrintHealth(report scraper.HealthReport) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:    %s\n", strings.ToUpper(report.Status)))
	sb.WriteString(fmt.Sprintf("Strategy:  %s\n\n", report.Strategy))
	for _, path := range []scraper.Path{scraper.PathPrimary, scraper.PathFallback} {
		probe := report.Probes[path]
		if probe.Reachable {
			sb.WriteString(fmt.Sprintf("✓ %-9s %dms\n", path, probe.LatencyMs))
		} else {
			sb.WriteString(fmt.Sprintf("✗ %-9s %s\n", path, probe.Error))
		}
	}

	p.printBox("HEALTH", strings.TrimSuffix(sb.String(), "\n"))
}
