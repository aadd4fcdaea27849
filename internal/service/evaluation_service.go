package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
)

// Eligibility rejection reasons surfaced by CanSubmit.
const (
	EvalReasonTurmaNotConcluded = "turma is not concluded"
	EvalReasonNotPresent        = "user was not marked present"
	EvalReasonAlreadySubmitted  = "evaluation already submitted"
)

type avaliacaoRepository interface {
	Create(ctx context.Context, avaliacao *models.Avaliacao) error
	Exists(ctx context.Context, turmaID, userID string) (bool, error)
	ListByTurma(ctx context.Context, turmaID string) ([]models.AvaliacaoDetail, error)
}

type evaluationPresencaReader interface {
	FindByTurmaAndUser(ctx context.Context, turmaID, userID string) (*models.Presenca, error)
}

type evaluationTurmaReader interface {
	FindByID(ctx context.Context, id string) (*models.Turma, error)
}

// EvaluationService handles post-class evaluations. An evaluation requires a
// concluded turma and a presente attendance record, and each user submits at
// most once.
type EvaluationService struct {
	repo      avaliacaoRepository
	presencas evaluationPresencaReader
	turmas    evaluationTurmaReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEvaluationService constructs an EvaluationService.
func NewEvaluationService(repo avaliacaoRepository, presencas evaluationPresencaReader, turmas evaluationTurmaReader, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EvaluationService{
		repo:      repo,
		presencas: presencas,
		turmas:    turmas,
		validator: validate,
		logger:    logger,
	}
}

// Submit stores an evaluation after checking eligibility. Evaluations are
// immutable once stored.
func (s *EvaluationService) Submit(ctx context.Context, turmaID, userID string, req models.SubmitAvaliacaoRequest) (*models.Avaliacao, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}

	eligibility, err := s.CanSubmit(ctx, turmaID, userID)
	if err != nil {
		return nil, err
	}
	if !eligibility.CanSubmit {
		if eligibility.Reason == EvalReasonAlreadySubmitted {
			return nil, appErrors.Clone(appErrors.ErrConflict, eligibility.Reason)
		}
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, eligibility.Reason)
	}

	avaliacao := &models.Avaliacao{
		TurmaID:    turmaID,
		UserID:     userID,
		Respostas:  req.Respostas,
		NPS:        req.NPS,
		Comentario: req.Comentario,
	}

	if err := s.repo.Create(ctx, avaliacao); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store evaluation")
	}

	s.logger.Info("evaluation submitted",
		zap.String("turma_id", turmaID),
		zap.String("user_id", userID),
		zap.Int("nps", req.NPS))

	return avaliacao, nil
}

// CanSubmit checks evaluation eligibility without writing anything. Used by
// clients to decide whether to show the evaluation form.
func (s *EvaluationService) CanSubmit(ctx context.Context, turmaID, userID string) (*models.AvaliacaoEligibility, error) {
	turma, err := s.turmas.FindByID(ctx, turmaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "turma not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}

	if turma.Status != models.TurmaStatusConcluida {
		return &models.AvaliacaoEligibility{Reason: EvalReasonTurmaNotConcluded}, nil
	}

	presenca, err := s.presencas.FindByTurmaAndUser(ctx, turmaID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.AvaliacaoEligibility{Reason: EvalReasonNotPresent}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if !presenca.Presente {
		return &models.AvaliacaoEligibility{Reason: EvalReasonNotPresent}, nil
	}

	exists, err := s.repo.Exists(ctx, turmaID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check prior evaluation")
	}
	if exists {
		return &models.AvaliacaoEligibility{Reason: EvalReasonAlreadySubmitted}, nil
	}

	return &models.AvaliacaoEligibility{CanSubmit: true}, nil
}

// ListByTurma returns all evaluations for a turma.
func (s *EvaluationService) ListByTurma(ctx context.Context, turmaID string) ([]models.AvaliacaoDetail, error) {
	avaliacoes, err := s.repo.ListByTurma(ctx, turmaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	return avaliacoes, nil
}
