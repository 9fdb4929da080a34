package db

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/jonathan/job-extractor/internal/types"
)

// DefaultListLimit bounds ListRecentExtractions when no limit is given.
const DefaultListLimit = 50

// Extraction is a persisted extraction row.
type Extraction struct {
	ID               uuid.UUID `json:"id"`
	URL              string    `json:"url"`
	Title            string    `json:"title"`
	Responsibilities []string  `json:"responsibilities"`
	Requirements     []string  `json:"requirements"`
	Description      string    `json:"description,omitempty"`
	FullText         string    `json:"full_text,omitempty"`
	ScrapingMethod   string    `json:"scraping_method"`
	HasEssentialInfo bool      `json:"has_essential_info"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Platform         string    `json:"platform,omitempty"`
	Language         string    `json:"language,omitempty"`
	ContentHash      string    `json:"content_hash"`
	ErrorMessage     string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ToJobPosting converts the row back into an extraction. The Error field is not
// restored; ErrorMessage carries the stored text.
func (e *Extraction) ToJobPosting() *types.JobPostingExtraction {
	return &types.JobPostingExtraction{
		URL:              e.URL,
		Title:            e.Title,
		Responsibilities: nonNil(e.Responsibilities),
		Requirements:     nonNil(e.Requirements),
		Description:      e.Description,
		FullText:         e.FullText,
		ScrapingMethod:   types.ScrapingMethod(e.ScrapingMethod),
		HasEssentialInfo: e.HasEssentialInfo,
		ProcessingTimeMs: e.ProcessingTimeMs,
		Platform:         e.Platform,
		Language:         e.Language,
		ErrorMessage:     e.ErrorMessage,
	}
}

// HashContent returns the hex BLAKE2b-256 digest of text.
func HashContent(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

const extractionColumns = `id, url, title, responsibilities, requirements, description, full_text,
	scraping_method, has_essential_info, processing_time_ms, platform, language,
	content_hash, error_message, created_at, updated_at`

// SaveExtraction inserts ex, or replaces the stored row for the same URL.
func (db *DB) SaveExtraction(ctx context.Context, ex *types.JobPostingExtraction) (*Extraction, error) {
	if ex == nil || ex.URL == "" {
		return nil, errors.New("extraction with a URL is required")
	}
	responsibilities, err := json.Marshal(nonNil(ex.Responsibilities))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal responsibilities: %w", err)
	}
	requirements, err := json.Marshal(nonNil(ex.Requirements))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal requirements: %w", err)
	}

	row := &Extraction{
		ID:               uuid.New(),
		URL:              ex.URL,
		Title:            ex.Title,
		Responsibilities: nonNil(ex.Responsibilities),
		Requirements:     nonNil(ex.Requirements),
		Description:      ex.Description,
		FullText:         ex.FullText,
		ScrapingMethod:   string(ex.ScrapingMethod),
		HasEssentialInfo: ex.HasEssentialInfo,
		ProcessingTimeMs: ex.ProcessingTimeMs,
		Platform:         ex.Platform,
		Language:         ex.Language,
		ContentHash:      HashContent(ex.FullText),
		ErrorMessage:     ex.ErrorMessage,
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO job_extractions (id, url, title, responsibilities, requirements, description,
		        full_text, scraping_method, has_essential_info, processing_time_ms, platform,
		        language, content_hash, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (url) DO UPDATE SET
		        title = EXCLUDED.title,
		        responsibilities = EXCLUDED.responsibilities,
		        requirements = EXCLUDED.requirements,
		        description = EXCLUDED.description,
		        full_text = EXCLUDED.full_text,
		        scraping_method = EXCLUDED.scraping_method,
		        has_essential_info = EXCLUDED.has_essential_info,
		        processing_time_ms = EXCLUDED.processing_time_ms,
		        platform = EXCLUDED.platform,
		        language = EXCLUDED.language,
		        content_hash = EXCLUDED.content_hash,
		        error_message = EXCLUDED.error_message,
		        updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		row.ID, row.URL, row.Title, responsibilities, requirements, row.Description,
		row.FullText, row.ScrapingMethod, row.HasEssentialInfo, row.ProcessingTimeMs, row.Platform,
		row.Language, row.ContentHash, row.ErrorMessage,
	).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save extraction: %w", err)
	}
	return row, nil
}

// GetExtractionByURL returns the stored extraction for url, or nil if there is none.
func (db *DB) GetExtractionByURL(ctx context.Context, url string) (*Extraction, error) {
	e, err := scanExtraction(db.pool.QueryRow(ctx,
		`SELECT `+extractionColumns+` FROM job_extractions WHERE url = $1`, url))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get extraction: %w", err)
	}
	return e, nil
}

// ListRecentExtractions returns up to limit extractions, most recently updated first.
func (db *DB) ListRecentExtractions(ctx context.Context, limit int) ([]Extraction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+extractionColumns+` FROM job_extractions ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list extractions: %w", err)
	}
	defer rows.Close()

	var out []Extraction
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extraction: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list extractions: %w", err)
	}
	return out, nil
}

func scanExtraction(row pgx.Row) (*Extraction, error) {
	var e Extraction
	var responsibilities, requirements []byte
	err := row.Scan(&e.ID, &e.URL, &e.Title, &responsibilities, &requirements, &e.Description,
		&e.FullText, &e.ScrapingMethod, &e.HasEssentialInfo, &e.ProcessingTimeMs, &e.Platform,
		&e.Language, &e.ContentHash, &e.ErrorMessage, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// Parse JSONB fields
	if responsibilities != nil {
		_ = json.Unmarshal(responsibilities, &e.Responsibilities)
	}
	if requirements != nil {
		_ = json.Unmarshal(requirements, &e.Requirements)
	}
	e.Responsibilities = nonNil(e.Responsibilities)
	e.Requirements = nonNil(e.Requirements)
	return &e, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
