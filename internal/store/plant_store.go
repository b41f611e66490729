package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/plantasking/internal/domain"
)

type PlantStore struct {
	db *sql.DB
}

func NewPlantStore(db *sql.DB) *PlantStore {
	return &PlantStore{db: db}
}

func (s *PlantStore) Create(ctx context.Context, storageKey, mimeType string) (*domain.Plant, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO plants (storage_key, mime_type) VALUES (?, ?)
	`, storageKey, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to create plant: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *PlantStore) GetByID(ctx context.Context, id int64) (*domain.Plant, error) {
	plant := &domain.Plant{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, storage_key, mime_type, captured_at FROM plants WHERE id = ?
	`, id).Scan(&plant.ID, &plant.StorageKey, &plant.MimeType, &plant.CapturedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plant: %w", err)
	}

	return plant, nil
}

// List returns every plant, most recently captured first.
func (s *PlantStore) List(ctx context.Context) ([]*domain.Plant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, storage_key, mime_type, captured_at FROM plants ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}
	defer rows.Close()

	var plants []*domain.Plant
	for rows.Next() {
		plant := &domain.Plant{}
		if err := rows.Scan(&plant.ID, &plant.StorageKey, &plant.MimeType, &plant.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plant: %w", err)
		}
		plants = append(plants, plant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plants: %w", err)
	}

	return plants, nil
}

// Delete removes the plant and, through the foreign key, its analyses.
func (s *PlantStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM plants WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("plant %d: %w", id, ErrNotFound)
	}

	return nil
}
