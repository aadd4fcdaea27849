package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
)

type inscricaoRepository interface {
	Enroll(ctx context.Context, turmaID, userID string, now time.Time) (*models.EnrollmentResult, error)
	FindByID(ctx context.Context, id string) (*models.Inscricao, error)
	Cancel(ctx context.Context, id string) (*models.Inscricao, error)
	ListByTurma(ctx context.Context, turmaID string) ([]models.InscricaoDetail, error)
	ListByUser(ctx context.Context, userID string) ([]models.InscricaoWithTurma, error)
}

type availabilityInvalidator interface {
	InvalidateProjection(ctx context.Context)
}

type enrollmentMetrics interface {
	RecordEnrollmentOutcome(outcome string)
}

// EnrollmentService orchestrates enrollment and cancellation on top of the
// transactional repository operation.
type EnrollmentService struct {
	repo        inscricaoRepository
	projections availabilityInvalidator
	audit       auditWriter
	metrics     enrollmentMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo inscricaoRepository, projections availabilityInvalidator, audit auditWriter, metrics enrollmentMetrics, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:        repo,
		projections: projections,
		audit:       audit,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Enroll attempts to enroll the user in the turma. Business rejections (class
// closed, duplicate, full) come back as an unsuccessful result, not an error.
func (s *EnrollmentService) Enroll(ctx context.Context, turmaID, userID string) (*models.EnrollmentResult, error) {
	result, err := s.repo.Enroll(ctx, turmaID, userID, s.now())
	if err != nil {
		s.recordOutcome(EnrollOutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enrollment failed")
	}

	if !result.Success {
		s.recordOutcome(rejectionOutcome(result.Message))
		return result, nil
	}

	s.recordOutcome(EnrollOutcomeConfirmed)
	if s.projections != nil {
		s.projections.InvalidateProjection(ctx)
	}
	s.recordAudit(ctx, userID, models.AuditActionEnroll, turmaID, result.Inscricao)

	s.logger.Info("enrollment confirmed",
		zap.String("turma_id", turmaID),
		zap.String("user_id", userID),
		zap.String("inscricao_id", result.Inscricao.ID))

	return result, nil
}

// Cancel cancels an enrollment. The caller must own the enrollment or hold
// the GESTOR role.
func (s *EnrollmentService) Cancel(ctx context.Context, inscricaoID string, claims *models.JWTClaims) (*models.Inscricao, error) {
	inscricao, err := s.repo.FindByID(ctx, inscricaoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if claims == nil || (inscricao.UserID != claims.UserID && !claims.IsGestor()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot cancel another user's enrollment")
	}

	if inscricao.Status == models.InscricaoStatusCancelada {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already canceled")
	}

	canceled, err := s.repo.Cancel(ctx, inscricaoID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
	}

	if s.projections != nil {
		s.projections.InvalidateProjection(ctx)
	}
	s.recordAudit(ctx, claims.UserID, models.AuditActionEnrollmentCancel, canceled.TurmaID, canceled)

	return canceled, nil
}

// ListByUser returns the user's enrollments joined with their turmas.
func (s *EnrollmentService) ListByUser(ctx context.Context, userID string) ([]models.InscricaoWithTurma, error) {
	inscricoes, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return inscricoes, nil
}

// ListByTurma returns all enrollments for a turma with user profiles.
func (s *EnrollmentService) ListByTurma(ctx context.Context, turmaID string) ([]models.InscricaoDetail, error) {
	inscricoes, err := s.repo.ListByTurma(ctx, turmaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return inscricoes, nil
}

func (s *EnrollmentService) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordEnrollmentOutcome(outcome)
	}
}

func (s *EnrollmentService) recordAudit(ctx context.Context, actorID, action, turmaID string, payload interface{}) {
	if s.audit == nil {
		return
	}
	var newValues []byte
	if payload != nil {
		newValues, _ = json.Marshal(payload)
	}
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "inscricoes",
		ResourceID: &turmaID,
		NewValues:  newValues,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record enrollment audit log", zap.Error(err))
	}
}

func rejectionOutcome(message string) string {
	switch message {
	case models.EnrollMsgAlreadyEnrolled:
		return EnrollOutcomeDuplicate
	case models.EnrollMsgFull:
		return EnrollOutcomeFull
	default:
		return EnrollOutcomeClosed
	}
}
