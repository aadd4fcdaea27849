package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
)

type presencaRepository interface {
	Upsert(ctx context.Context, presenca *models.Presenca) error
	FindByTurmaAndUser(ctx context.Context, turmaID, userID string) (*models.Presenca, error)
	ListByTurma(ctx context.Context, turmaID string) ([]models.PresencaDetail, error)
	ListByUser(ctx context.Context, userID string) ([]models.Presenca, error)
}

type attendanceTurmaReader interface {
	FindByID(ctx context.Context, id string) (*models.Turma, error)
}

type attendanceEnrollmentReader interface {
	ListByTurma(ctx context.Context, turmaID string) ([]models.InscricaoDetail, error)
}

// AttendanceService records attendance for enrolled users. Re-marking the
// same (turma, user) pair overwrites the previous record.
type AttendanceService struct {
	repo        presencaRepository
	turmas      attendanceTurmaReader
	enrollments attendanceEnrollmentReader
	audit       auditWriter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo presencaRepository, turmas attendanceTurmaReader, enrollments attendanceEnrollmentReader, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{
		repo:        repo,
		turmas:      turmas,
		enrollments: enrollments,
		audit:       audit,
		validator:   validate,
		logger:      logger,
	}
}

// Mark records attendance for a user in a turma. The user must hold an
// active enrollment.
func (s *AttendanceService) Mark(ctx context.Context, turmaID string, req models.MarkPresencaRequest, markerID string) (*models.Presenca, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	if _, err := s.turmas.FindByID(ctx, turmaID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "turma not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}

	enrolled, err := s.hasActiveEnrollment(ctx, turmaID, req.UserID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "user is not actively enrolled in this turma")
	}

	presenca := &models.Presenca{
		TurmaID:    turmaID,
		UserID:     req.UserID,
		Presente:   req.Presente,
		MarcadoPor: &markerID,
		MarcadoEm:  time.Now().UTC(),
	}

	if err := s.repo.Upsert(ctx, presenca); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.recordAudit(ctx, markerID, turmaID, presenca)

	return presenca, nil
}

// ListByTurma returns attendance records for a turma with user names.
func (s *AttendanceService) ListByTurma(ctx context.Context, turmaID string) ([]models.PresencaDetail, error) {
	presencas, err := s.repo.ListByTurma(ctx, turmaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return presencas, nil
}

// ListByUser returns a user's attendance history.
func (s *AttendanceService) ListByUser(ctx context.Context, userID string) ([]models.Presenca, error) {
	presencas, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return presencas, nil
}

func (s *AttendanceService) hasActiveEnrollment(ctx context.Context, turmaID, userID string) (bool, error) {
	inscricoes, err := s.enrollments.ListByTurma(ctx, turmaID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	for _, inscricao := range inscricoes {
		if inscricao.UserID == userID && inscricao.Status == models.InscricaoStatusAtiva {
			return true, nil
		}
	}
	return false, nil
}

func (s *AttendanceService) recordAudit(ctx context.Context, markerID, turmaID string, presenca *models.Presenca) {
	if s.audit == nil {
		return
	}
	newValues, _ := json.Marshal(presenca)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &markerID,
		Action:     models.AuditActionAttendanceMark,
		Resource:   "presencas",
		ResourceID: &turmaID,
		NewValues:  newValues,
	}); err != nil {
		s.logger.Warn("failed to record attendance audit log", zap.Error(err))
	}
}
