package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduforma/turmas-api/internal/models"
)

// CampusRepository handles persistence of campuses.
type CampusRepository struct {
	db *sqlx.DB
}

// NewCampusRepository constructs the repository.
func NewCampusRepository(db *sqlx.DB) *CampusRepository {
	return &CampusRepository{db: db}
}

// List returns all campuses ordered by name.
func (r *CampusRepository) List(ctx context.Context) ([]models.Campus, error) {
	const query = `SELECT id, nome, created_at FROM campus ORDER BY nome ASC`
	var campuses []models.Campus
	if err := r.db.SelectContext(ctx, &campuses, query); err != nil {
		return nil, fmt.Errorf("list campuses: %w", err)
	}
	return campuses, nil
}

// FindByID returns a campus by its ID.
func (r *CampusRepository) FindByID(ctx context.Context, id string) (*models.Campus, error) {
	const query = `SELECT id, nome, created_at FROM campus WHERE id = $1`
	var campus models.Campus
	if err := r.db.GetContext(ctx, &campus, query, id); err != nil {
		return nil, err
	}
	return &campus, nil
}

// Create persists a new campus.
func (r *CampusRepository) Create(ctx context.Context, campus *models.Campus) error {
	if campus.ID == "" {
		campus.ID = uuid.NewString()
	}
	if campus.CreatedAt.IsZero() {
		campus.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO campus (id, nome, created_at) VALUES (:id, :nome, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, campus); err != nil {
		return fmt.Errorf("create campus: %w", err)
	}
	return nil
}

// Update renames a campus.
func (r *CampusRepository) Update(ctx context.Context, id, nome string) error {
	const query = `UPDATE campus SET nome = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, nome); err != nil {
		return fmt.Errorf("update campus: %w", err)
	}
	return nil
}

// Delete removes a campus.
func (r *CampusRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM campus WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete campus: %w", err)
	}
	return nil
}
