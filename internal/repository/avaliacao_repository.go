package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduforma/turmas-api/internal/models"
)

// AvaliacaoRepository handles persistence of post-class evaluations.
type AvaliacaoRepository struct {
	db *sqlx.DB
}

// NewAvaliacaoRepository constructs the repository.
func NewAvaliacaoRepository(db *sqlx.DB) *AvaliacaoRepository {
	return &AvaliacaoRepository{db: db}
}

// Create persists a new evaluation. Evaluations are immutable; there is no
// update or delete path.
func (r *AvaliacaoRepository) Create(ctx context.Context, avaliacao *models.Avaliacao) error {
	if avaliacao.ID == "" {
		avaliacao.ID = uuid.NewString()
	}
	if avaliacao.EnviadaEm.IsZero() {
		avaliacao.EnviadaEm = time.Now().UTC()
	}
	const query = `INSERT INTO avaliacoes (id, turma_id, user_id, respostas, nps, comentario, enviada_em)
        VALUES (:id, :turma_id, :user_id, :respostas, :nps, :comentario, :enviada_em)`
	if _, err := r.db.NamedExecContext(ctx, query, avaliacao); err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

// Exists reports whether the user already submitted an evaluation for the
// turma.
func (r *AvaliacaoRepository) Exists(ctx context.Context, turmaID, userID string) (bool, error) {
	const query = `SELECT 1 FROM avaliacoes WHERE turma_id = $1 AND user_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, turmaID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check evaluation exists: %w", err)
	}
	return true, nil
}

// ListByTurma returns evaluations for a turma with user info, newest first.
func (r *AvaliacaoRepository) ListByTurma(ctx context.Context, turmaID string) ([]models.AvaliacaoDetail, error) {
	const query = `SELECT a.id, a.turma_id, a.user_id, a.respostas, a.nps, a.comentario, a.enviada_em,
        u.nome AS user_nome, u.email AS user_email
        FROM avaliacoes a
        JOIN users u ON u.id = a.user_id
        WHERE a.turma_id = $1
        ORDER BY a.enviada_em DESC`
	var avaliacoes []models.AvaliacaoDetail
	if err := r.db.SelectContext(ctx, &avaliacoes, query, turmaID); err != nil {
		return nil, fmt.Errorf("list turma evaluations: %w", err)
	}
	return avaliacoes, nil
}

// AverageNPS returns the mean NPS score and evaluation count across all
// turmas.
func (r *AvaliacaoRepository) AverageNPS(ctx context.Context) (avg float64, count int, err error) {
	const query = `SELECT COALESCE(AVG(nps), 0), COUNT(*) FROM avaliacoes`
	row := r.db.QueryRowxContext(ctx, query)
	if err := row.Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("average nps: %w", err)
	}
	return avg, count, nil
}
