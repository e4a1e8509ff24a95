package mock

import (
	"context"

	"github.com/fwojciec/htmlner"
)

var _ htmlner.ExtractionService = (*ExtractionService)(nil)

// ExtractionService is a mock implementation of htmlner.ExtractionService.
type ExtractionService struct {
	CreateExtractionFn   func(ctx context.Context, e *htmlner.Extraction) error
	FindExtractionByIDFn func(ctx context.Context, id string) (*htmlner.Extraction, error)
	FindExtractionsFn    func(ctx context.Context, filter htmlner.ExtractionFilter) ([]*htmlner.Extraction, error)
	DeleteExtractionFn   func(ctx context.Context, id string) error
}

func (s *ExtractionService) CreateExtraction(ctx context.Context, e *htmlner.Extraction) error {
	return s.CreateExtractionFn(ctx, e)
}

func (s *ExtractionService) FindExtractionByID(ctx context.Context, id string) (*htmlner.Extraction, error) {
	return s.FindExtractionByIDFn(ctx, id)
}

func (s *ExtractionService) FindExtractions(ctx context.Context, filter htmlner.ExtractionFilter) ([]*htmlner.Extraction, error) {
	return s.FindExtractionsFn(ctx, filter)
}

func (s *ExtractionService) DeleteExtraction(ctx context.Context, id string) error {
	return s.DeleteExtractionFn(ctx, id)
}
