package validation

import (
	"fmt"
	"strings"

	"github.com/jonathan/job-extractor/internal/types"
)

// IncompleteError reports an extraction that lacks essential fields.
type IncompleteError struct {
	URL     string
	Missing []string
}

func (e *IncompleteError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("incomplete extraction for %s: missing %s", e.URL, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("incomplete extraction: missing %s", strings.Join(e.Missing, ", "))
}

// Check returns nil when ex has essential info, otherwise an *IncompleteError.
func Check(ex *types.JobPostingExtraction) error {
	if HasEssentialInfo(ex) {
		return nil
	}
	err := &IncompleteError{Missing: Missing(ex)}
	if ex != nil {
		err.URL = ex.URL
	}
	return err
}
