package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduforma/turmas-api/internal/models"
)

// PresencaRepository handles persistence of attendance records.
type PresencaRepository struct {
	db *sqlx.DB
}

// NewPresencaRepository constructs the repository.
func NewPresencaRepository(db *sqlx.DB) *PresencaRepository {
	return &PresencaRepository{db: db}
}

// Upsert marks attendance for a user in a turma, overwriting a previous mark.
func (r *PresencaRepository) Upsert(ctx context.Context, presenca *models.Presenca) error {
	if presenca.ID == "" {
		presenca.ID = uuid.NewString()
	}
	if presenca.MarcadoEm.IsZero() {
		presenca.MarcadoEm = time.Now().UTC()
	}
	const query = `INSERT INTO presencas (id, turma_id, user_id, presente, marcado_por, marcado_em)
        VALUES (:id, :turma_id, :user_id, :presente, :marcado_por, :marcado_em)
        ON CONFLICT (turma_id, user_id) DO UPDATE
        SET presente = EXCLUDED.presente, marcado_por = EXCLUDED.marcado_por, marcado_em = EXCLUDED.marcado_em`
	if _, err := r.db.NamedExecContext(ctx, query, presenca); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// FindByTurmaAndUser returns the attendance record for a (turma, user) pair.
func (r *PresencaRepository) FindByTurmaAndUser(ctx context.Context, turmaID, userID string) (*models.Presenca, error) {
	const query = `SELECT id, turma_id, user_id, presente, marcado_por, marcado_em
        FROM presencas WHERE turma_id = $1 AND user_id = $2`
	var presenca models.Presenca
	if err := r.db.GetContext(ctx, &presenca, query, turmaID, userID); err != nil {
		return nil, err
	}
	return &presenca, nil
}

// ListByTurma returns attendance for a turma with user and marker names.
func (r *PresencaRepository) ListByTurma(ctx context.Context, turmaID string) ([]models.PresencaDetail, error) {
	const query = `SELECT p.id, p.turma_id, p.user_id, p.presente, p.marcado_por, p.marcado_em,
        u.nome AS user_nome, u.email AS user_email, m.nome AS marcador_nome
        FROM presencas p
        JOIN users u ON u.id = p.user_id
        LEFT JOIN users m ON m.id = p.marcado_por
        WHERE p.turma_id = $1
        ORDER BY u.nome ASC`
	var presencas []models.PresencaDetail
	if err := r.db.SelectContext(ctx, &presencas, query, turmaID); err != nil {
		return nil, fmt.Errorf("list turma attendance: %w", err)
	}
	return presencas, nil
}

// ListByUser returns a user's attendance records.
func (r *PresencaRepository) ListByUser(ctx context.Context, userID string) ([]models.Presenca, error) {
	const query = `SELECT id, turma_id, user_id, presente, marcado_por, marcado_em
        FROM presencas WHERE user_id = $1`
	var presencas []models.Presenca
	if err := r.db.SelectContext(ctx, &presencas, query, userID); err != nil {
		return nil, fmt.Errorf("list user attendance: %w", err)
	}
	return presencas, nil
}

// CountPresent returns present/total counters across all attendance rows.
func (r *PresencaRepository) CountPresent(ctx context.Context) (present int, total int, err error) {
	const query = `SELECT COUNT(*) FILTER (WHERE presente), COUNT(*) FROM presencas`
	row := r.db.QueryRowxContext(ctx, query)
	if err := row.Scan(&present, &total); err != nil {
		return 0, 0, fmt.Errorf("count attendance: %w", err)
	}
	return present, total, nil
}
