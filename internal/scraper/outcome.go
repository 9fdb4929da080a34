package scraper

import (
	"github.com/jonathan/job-extractor/internal/types"
	"github.com/jonathan/job-extractor/internal/validation"
)

// OutcomeKind tags the result of one client attempt.
type OutcomeKind int

const (
	// OutcomeSuccess is a result with essential info
	OutcomeSuccess OutcomeKind = iota
	// OutcomeNeedsFallback is a result the validator rejected
	OutcomeNeedsFallback
	// OutcomeFailure is an error from the client
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNeedsFallback:
		return "needs_fallback"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is what one client attempt produced. Extraction is set for Success and
// NeedsFallback, Err for Failure.
type Outcome struct {
	Kind       OutcomeKind
	Extraction *types.JobPostingExtraction
	Err        error

	// skipped marks a primary that was never called because it is disabled.
	skipped bool
}

func classify(ex *types.JobPostingExtraction, err error) Outcome {
	if err != nil {
		return Outcome{Kind: OutcomeFailure, Err: err}
	}
	if ex == nil {
		return Outcome{Kind: OutcomeFailure, Err: &types.ExtractionError{
			Kind:    types.KindAPIError,
			Message: "client returned no extraction",
		}}
	}
	validation.Apply(ex)
	if !ex.HasEssentialInfo {
		return Outcome{Kind: OutcomeNeedsFallback, Extraction: ex}
	}
	return Outcome{Kind: OutcomeSuccess, Extraction: ex}
}
