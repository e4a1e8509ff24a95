package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/htmlner"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ htmlner.ExtractionService = (*ExtractionService)(nil)

// ExtractionService implements htmlner.ExtractionService using SQLite.
type ExtractionService struct {
	db *DB
}

// NewExtractionService creates a new ExtractionService.
func NewExtractionService(db *DB) *ExtractionService {
	return &ExtractionService{db: db}
}

// CreateExtraction stores ext and its entities in one transaction, setting
// ext.ID and ext.CreatedAt.
func (s *ExtractionService) CreateExtraction(ctx context.Context, ext *htmlner.Extraction) error {
	if err := ext.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	createdAt := time.Now().UTC().Truncate(time.Second)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO extractions (id, source, content_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, id, ext.Source, ext.ContentHash, createdAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert extraction: %w", err)
	}

	for i, ent := range ext.Entities {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entities (extraction_id, position, label, text, start_token, end_token)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, ent.Label, ent.Text, ent.Start, ent.End); err != nil {
			return fmt.Errorf("insert entity %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit extraction: %w", err)
	}
	ext.ID = id
	ext.CreatedAt = createdAt
	return nil
}

// FindExtractionByID retrieves an extraction with its entities.
func (s *ExtractionService) FindExtractionByID(ctx context.Context, id string) (*htmlner.Extraction, error) {
	exts, err := s.FindExtractions(ctx, htmlner.ExtractionFilter{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(exts) == 0 {
		return nil, htmlner.Errorf(htmlner.ENOTFOUND, "extraction not found")
	}
	return exts[0], nil
}

// FindExtractions retrieves extractions matching the filter, newest first.
func (s *ExtractionService) FindExtractions(ctx context.Context, filter htmlner.ExtractionFilter) ([]*htmlner.Extraction, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, source, content_hash, created_at FROM extractions WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Source != nil {
		query.WriteString(" AND source = ?")
		args = append(args, *filter.Source)
	}
	if filter.Label != nil {
		query.WriteString(" AND EXISTS (SELECT 1 FROM entities WHERE entities.extraction_id = extractions.id AND label = ?)")
		args = append(args, *filter.Label)
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exts []*htmlner.Extraction
	for rows.Next() {
		var ext htmlner.Extraction
		var createdAt string
		if err := rows.Scan(&ext.ID, &ext.Source, &ext.ContentHash, &createdAt); err != nil {
			return nil, err
		}
		if ext.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("extraction %s created_at: %w", ext.ID, err)
		}
		exts = append(exts, &ext)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, ext := range exts {
		if ext.Entities, err = s.findEntities(ctx, ext.ID); err != nil {
			return nil, err
		}
	}
	return exts, nil
}

// DeleteExtraction removes an extraction; its entities cascade.
func (s *ExtractionService) DeleteExtraction(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM extractions WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return htmlner.Errorf(htmlner.ENOTFOUND, "extraction not found")
	}
	return nil
}

func (s *ExtractionService) findEntities(ctx context.Context, id string) ([]htmlner.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, text, start_token, end_token
		FROM entities
		WHERE extraction_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := []htmlner.Entity{}
	for rows.Next() {
		var ent htmlner.Entity
		if err := rows.Scan(&ent.Label, &ent.Text, &ent.Start, &ent.End); err != nil {
			return nil, err
		}
		entities = append(entities, ent)
	}
	return entities, rows.Err()
}
