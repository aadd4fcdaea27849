package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduforma/turmas-api/internal/availability"
	"github.com/eduforma/turmas-api/internal/models"
)

// InscricaoRepository handles persistence of enrollments, including the
// atomic enroll operation.
type InscricaoRepository struct {
	db *sqlx.DB
}

// NewInscricaoRepository constructs the repository.
func NewInscricaoRepository(db *sqlx.DB) *InscricaoRepository {
	return &InscricaoRepository{db: db}
}

const inscricaoColumns = `id, turma_id, user_id, status, created_at, updated_at`

// Enroll atomically enrolls a user in a turma. The turma row is locked for
// the duration of the transaction, so concurrent attempts against the same
// turma serialize and the capacity check cannot be oversold. Business
// rejections come back inside the EnrollmentResult; only infrastructure
// failures are returned as errors.
func (r *InscricaoRepository) Enroll(ctx context.Context, turmaID, userID string, now time.Time) (*models.EnrollmentResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enroll tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	lockQuery := fmt.Sprintf(`SELECT %s FROM turmas WHERE id = $1 FOR UPDATE`, turmaColumns)
	var turma models.Turma
	if err := tx.GetContext(ctx, &turma, lockQuery, turmaID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.EnrollmentResult{Success: false, Message: models.EnrollMsgClosed}, nil
		}
		return nil, fmt.Errorf("lock turma: %w", err)
	}

	if availability.Compute(turma, 0, now).Closed {
		return &models.EnrollmentResult{Success: false, Message: models.EnrollMsgClosed}, nil
	}

	existingQuery := fmt.Sprintf(`SELECT %s FROM inscricoes WHERE turma_id = $1 AND user_id = $2`, inscricaoColumns)
	var existing models.Inscricao
	err = tx.GetContext(ctx, &existing, existingQuery, turmaID, userID)
	hasExisting := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find existing enrollment: %w", err)
	}
	if hasExisting && existing.Status == models.InscricaoStatusAtiva {
		return &models.EnrollmentResult{Success: false, Message: models.EnrollMsgAlreadyEnrolled}, nil
	}

	var activeCount int
	const countQuery = `SELECT COUNT(*) FROM inscricoes WHERE turma_id = $1 AND status = $2`
	if err := tx.GetContext(ctx, &activeCount, countQuery, turmaID, models.InscricaoStatusAtiva); err != nil {
		return nil, fmt.Errorf("count active enrollments: %w", err)
	}
	if activeCount >= turma.Capacidade {
		return &models.EnrollmentResult{Success: false, Message: models.EnrollMsgFull}, nil
	}

	var inscricao models.Inscricao
	if hasExisting {
		// A canceled row keeps the enrollment's identity; reactivate it.
		const reactivateQuery = `UPDATE inscricoes SET status = $2, updated_at = $3 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, reactivateQuery, existing.ID, models.InscricaoStatusAtiva, now.UTC()); err != nil {
			return nil, fmt.Errorf("reactivate enrollment: %w", err)
		}
		inscricao = existing
		inscricao.Status = models.InscricaoStatusAtiva
		inscricao.UpdatedAt = now.UTC()
	} else {
		inscricao = models.Inscricao{
			ID:        uuid.NewString(),
			TurmaID:   turmaID,
			UserID:    userID,
			Status:    models.InscricaoStatusAtiva,
			CreatedAt: now.UTC(),
			UpdatedAt: now.UTC(),
		}
		const insertQuery = `INSERT INTO inscricoes (id, turma_id, user_id, status, created_at, updated_at)
        VALUES (:id, :turma_id, :user_id, :status, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insertQuery, inscricao); err != nil {
			return nil, fmt.Errorf("insert enrollment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enroll tx: %w", err)
	}
	return &models.EnrollmentResult{Success: true, Inscricao: &inscricao}, nil
}

// FindByID returns an enrollment by its ID.
func (r *InscricaoRepository) FindByID(ctx context.Context, id string) (*models.Inscricao, error) {
	query := fmt.Sprintf(`SELECT %s FROM inscricoes WHERE id = $1`, inscricaoColumns)
	var inscricao models.Inscricao
	if err := r.db.GetContext(ctx, &inscricao, query, id); err != nil {
		return nil, err
	}
	return &inscricao, nil
}

// Cancel transitions an enrollment to CANCELADA and returns the updated row.
func (r *InscricaoRepository) Cancel(ctx context.Context, id string) (*models.Inscricao, error) {
	const query = `UPDATE inscricoes SET status = $2, updated_at = $3 WHERE id = $1
        RETURNING id, turma_id, user_id, status, created_at, updated_at`
	var inscricao models.Inscricao
	if err := r.db.GetContext(ctx, &inscricao, query, id, models.InscricaoStatusCancelada, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("cancel enrollment: %w", err)
	}
	return &inscricao, nil
}

// ListByTurma returns enrollments for a turma with user profile info, newest
// first.
func (r *InscricaoRepository) ListByTurma(ctx context.Context, turmaID string) ([]models.InscricaoDetail, error) {
	const query = `SELECT i.id, i.turma_id, i.user_id, i.status, i.created_at, i.updated_at,
        u.nome AS user_nome, u.email AS user_email, u.telefone AS user_telefone
        FROM inscricoes i
        JOIN users u ON u.id = i.user_id
        WHERE i.turma_id = $1
        ORDER BY i.created_at DESC`
	var inscricoes []models.InscricaoDetail
	if err := r.db.SelectContext(ctx, &inscricoes, query, turmaID); err != nil {
		return nil, fmt.Errorf("list turma enrollments: %w", err)
	}
	return inscricoes, nil
}

// ListByUser returns a user's enrollments joined with turma and campus info.
func (r *InscricaoRepository) ListByUser(ctx context.Context, userID string) ([]models.InscricaoWithTurma, error) {
	const query = `SELECT i.id, i.turma_id, i.user_id, i.status, i.created_at, i.updated_at,
        t.nome AS turma_nome, t.data AS turma_data, t.hora_inicio AS turma_hora_inicio,
        t.hora_fim AS turma_hora_fim, t.local AS turma_local, t.status AS turma_status,
        t.data_limite_inscricao, c.nome AS campus_nome
        FROM inscricoes i
        JOIN turmas t ON t.id = i.turma_id
        JOIN campus c ON c.id = t.campus_id
        WHERE i.user_id = $1
        ORDER BY t.data ASC, t.hora_inicio ASC`
	var inscricoes []models.InscricaoWithTurma
	if err := r.db.SelectContext(ctx, &inscricoes, query, userID); err != nil {
		return nil, fmt.Errorf("list user enrollments: %w", err)
	}
	return inscricoes, nil
}

// CountActive returns the number of ATIVA enrollments for a turma.
func (r *InscricaoRepository) CountActive(ctx context.Context, turmaID string) (int, error) {
	const query = `SELECT COUNT(*) FROM inscricoes WHERE turma_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, turmaID, models.InscricaoStatusAtiva); err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return count, nil
}

// CountAllActive returns the total number of ATIVA enrollments.
func (r *InscricaoRepository) CountAllActive(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM inscricoes WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.InscricaoStatusAtiva); err != nil {
		return 0, fmt.Errorf("count all active enrollments: %w", err)
	}
	return count, nil
}
