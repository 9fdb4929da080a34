// Package rendering serializes extractions into the plain-text block consumed by the
// downstream analysis step.
package rendering

import "fmt"

// RenderError is a template execution failure.
type RenderError struct {
	URL   string
	Cause error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error for %s: %v", e.URL, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
