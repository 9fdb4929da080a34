// Package types provides type definitions for structured data used throughout the job extractor.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "slices"

// ScrapingMethod records which client produced an extraction.
type ScrapingMethod string

const (
	// MethodPrimary is the structured-extraction API path
	MethodPrimary ScrapingMethod = "primary"
	// MethodFallback is the direct HTTP fetch + heuristic parsing path
	MethodFallback ScrapingMethod = "fallback"
)

// JobPostingExtraction is the result of extracting one job-posting URL.
type JobPostingExtraction struct {
	URL              string         `json:"url"`
	Title            string         `json:"title,omitempty"`
	Responsibilities []string       `json:"responsibilities"`
	Requirements     []string       `json:"requirements"`
	Description      string         `json:"description,omitempty"`
	FullText         string         `json:"full_text,omitempty"`
	ScrapingMethod   ScrapingMethod `json:"scraping_method"`
	HasEssentialInfo bool           `json:"has_essential_info"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	Platform         string         `json:"platform,omitempty"`
	Language         string         `json:"language,omitempty"`

	// Error is set on degraded or failed results; ErrorMessage mirrors it for JSON.
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// Clone returns a deep copy so cached values are never shared with callers.
func (e *JobPostingExtraction) Clone() *JobPostingExtraction {
	if e == nil {
		return nil
	}
	c := *e
	c.Responsibilities = slices.Clone(e.Responsibilities)
	c.Requirements = slices.Clone(e.Requirements)
	return &c
}

// SetError records err on the extraction and mirrors its message.
func (e *JobPostingExtraction) SetError(err error) {
	e.Error = err
	if err != nil {
		e.ErrorMessage = err.Error()
	} else {
		e.ErrorMessage = ""
	}
}

// Failed reports whether the extraction carries an error.
func (e *JobPostingExtraction) Failed() bool {
	return e == nil || e.Error != nil
}

// NewFailedExtraction builds the minimal result returned when every client failed.
func NewFailedExtraction(url string, err error) *JobPostingExtraction {
	ex := &JobPostingExtraction{
		URL:              url,
		Responsibilities: []string{},
		Requirements:     []string{},
		ScrapingMethod:   MethodFallback,
	}
	ex.SetError(err)
	return ex
}
