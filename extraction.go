package htmlner

import (
	"context"
	"time"
)

// Extraction is a stored result of running entity extraction on a source.
type Extraction struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	ContentHash string    `json:"contentHash"`
	Entities    []Entity  `json:"entities"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate returns an error if the extraction contains invalid fields.
func (e *Extraction) Validate() error {
	if e.Source == "" {
		return Errorf(EINVALID, "extraction source required")
	}
	for i, ent := range e.Entities {
		if ent.Label == "" {
			return Errorf(EINVALID, "extraction entity %d label required", i)
		}
	}
	return nil
}

// ExtractionService represents a service for managing stored extractions.
type ExtractionService interface {
	// CreateExtraction stores an extraction and its entities.
	CreateExtraction(ctx context.Context, ext *Extraction) error

	// FindExtractionByID retrieves an extraction with its entities.
	// Returns ENOTFOUND if the extraction does not exist.
	FindExtractionByID(ctx context.Context, id string) (*Extraction, error)

	// FindExtractions retrieves extractions matching the filter.
	FindExtractions(ctx context.Context, filter ExtractionFilter) ([]*Extraction, error)

	// DeleteExtraction permanently removes an extraction and its entities.
	// Returns ENOTFOUND if the extraction does not exist.
	DeleteExtraction(ctx context.Context, id string) error
}

// ExtractionFilter represents a filter for FindExtractions.
type ExtractionFilter struct {
	ID     *string `json:"id"`
	Source *string `json:"source"`

	// Label keeps only extractions containing an entity with this label.
	Label *string `json:"label"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
