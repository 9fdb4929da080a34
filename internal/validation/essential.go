// Package validation decides whether an extraction carries the minimum structured fields needed downstream.
package validation

import (
	"strings"

	"github.com/jonathan/job-extractor/internal/types"
)

// Field names reported by Missing.
const (
	FieldTitle            = "title"
	FieldResponsibilities = "responsibilities"
	FieldRequirements     = "requirements"
)

// HasEssentialInfo reports whether ex has a non-blank title and at least one
// responsibility or requirement. It has no side effects.
func HasEssentialInfo(ex *types.JobPostingExtraction) bool {
	if ex == nil {
		return false
	}
	if strings.TrimSpace(ex.Title) == "" {
		return false
	}
	return len(ex.Responsibilities) >= 1 || len(ex.Requirements) >= 1
}

// Missing lists the essential fields absent from ex, for logging.
// Responsibilities and requirements are reported together only when both are empty.
func Missing(ex *types.JobPostingExtraction) []string {
	if ex == nil {
		return []string{FieldTitle, FieldResponsibilities, FieldRequirements}
	}

	var missing []string
	if strings.TrimSpace(ex.Title) == "" {
		missing = append(missing, FieldTitle)
	}
	if len(ex.Responsibilities) == 0 && len(ex.Requirements) == 0 {
		missing = append(missing, FieldResponsibilities, FieldRequirements)
	}
	return missing
}

// Apply sets ex.HasEssentialInfo from HasEssentialInfo and returns ex.
func Apply(ex *types.JobPostingExtraction) *types.JobPostingExtraction {
	if ex != nil {
		ex.HasEssentialInfo = HasEssentialInfo(ex)
	}
	return ex
}
