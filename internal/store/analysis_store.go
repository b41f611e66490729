package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/plantasking/internal/domain"
)

type AnalysisStore struct {
	db *sql.DB
}

func NewAnalysisStore(db *sql.DB) *AnalysisStore {
	return &AnalysisStore{db: db}
}

const analysisColumns = `id, plant_id, mood, recommendation, failure_kind, created_at`

func (s *AnalysisStore) Create(ctx context.Context, plantID int64, mood domain.Mood, recommendation, failureKind string) (*domain.Analysis, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (plant_id, mood, recommendation, failure_kind) VALUES (?, ?, ?, ?)
	`, plantID, string(mood), recommendation, failureKind)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *AnalysisStore) GetByID(ctx context.Context, id int64) (*domain.Analysis, error) {
	a, err := scanAnalysis(s.db.QueryRowContext(ctx, `
		SELECT `+analysisColumns+` FROM analyses WHERE id = ?
	`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// LatestByPlantID returns the most recent analysis of the plant, or nil when
// it has never been analysed.
func (s *AnalysisStore) LatestByPlantID(ctx context.Context, plantID int64) (*domain.Analysis, error) {
	a, err := scanAnalysis(s.db.QueryRowContext(ctx, `
		SELECT `+analysisColumns+` FROM analyses
		WHERE plant_id = ? ORDER BY id DESC LIMIT 1
	`, plantID))
	if err != nil {
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	return a, nil
}

// ListByPlantID returns the plant's analyses, newest first.
func (s *AnalysisStore) ListByPlantID(ctx context.Context, plantID int64) ([]*domain.Analysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+analysisColumns+` FROM analyses
		WHERE plant_id = ? ORDER BY id DESC
	`, plantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}

	return analyses, nil
}

func (s *AnalysisStore) DeleteByPlantID(ctx context.Context, plantID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM analyses WHERE plant_id = ?
	`, plantID)
	if err != nil {
		return fmt.Errorf("failed to delete analyses for plant: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanAnalysis returns nil, nil when row is empty.
func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	a := &domain.Analysis{}
	var mood string
	err := row.Scan(&a.ID, &a.PlantID, &mood, &a.Recommendation, &a.FailureKind, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Mood = domain.Mood(mood)
	return a, nil
}
