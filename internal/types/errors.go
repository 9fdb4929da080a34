package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies extraction failures.
type ErrorKind string

const (
	// KindInvalidInput is a malformed URL or option; never retried
	KindInvalidInput ErrorKind = "invalid_input"
	// KindTimeout is a request that exceeded its deadline
	KindTimeout ErrorKind = "timeout"
	// KindRateLimited is an HTTP 429 from the extraction provider
	KindRateLimited ErrorKind = "rate_limited"
	// KindAPIError is a non-success response or an unusable body from the provider
	KindAPIError ErrorKind = "api_error"
	// KindNetwork is a transport failure or non-2xx page fetch
	KindNetwork ErrorKind = "network"
)

// ExtractionError is returned by the extraction clients and the URL extractor.
type ExtractionError struct {
	Kind       ErrorKind
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("%s extracting %s: %s", e.Kind, e.URL, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the same client may try again.
func (e *ExtractionError) Retryable() bool {
	switch e.Kind {
	case KindRateLimited:
		return true
	case KindAPIError:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// KindOf returns the kind of the first ExtractionError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return extErr.Kind
	}
	return ""
}

// IsKind reports whether err is an ExtractionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
