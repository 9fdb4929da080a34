package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/job-extractor/internal/types"
)

// ErrValidation indicates a malformed request body or query.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus maps an error to a response status. Invalid input is the caller's
// fault; every other extraction failure is an upstream problem.
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var extraction *types.ExtractionError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &extraction):
		if extraction.Kind == types.KindInvalidInput {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
