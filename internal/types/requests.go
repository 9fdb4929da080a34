package types

import (
	"github.com/go-playground/validator/v10"
)

// ExtractRequest is the body of a single-URL extraction request.
type ExtractRequest struct {
	URL string `json:"url" validate:"required"`
}

// BatchRequest is the body of a batch extraction request.
// Individual URLs are not validated here; malformed ones become per-item failures.
type BatchRequest struct {
	URLs        []string `json:"urls" validate:"required,min=1,max=100"`
	Concurrency int      `json:"concurrency,omitempty" validate:"omitempty,min=1"`
}

// Validate validates the ExtractRequest using the validator.
func (r *ExtractRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the BatchRequest using the validator.
func (r *BatchRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
