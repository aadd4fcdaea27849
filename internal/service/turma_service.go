package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/availability"
	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
)

const turmasAvailableCachePrefix = "turmas:available"

type turmaRepository interface {
	List(ctx context.Context, filter models.TurmaFilter) ([]models.TurmaDisponivel, int, error)
	FindByID(ctx context.Context, id string) (*models.Turma, error)
	FindDisponivelByID(ctx context.Context, id string) (*models.TurmaDisponivel, error)
	Create(ctx context.Context, turma *models.Turma) error
	Update(ctx context.Context, turma *models.Turma) error
	UpdateStatus(ctx context.Context, id string, status models.TurmaStatus) error
	Delete(ctx context.Context, id string) error
}

type turmaSpeakerLister interface {
	ListByTurma(ctx context.Context, turmaID string) ([]models.Speaker, error)
}

type turmaInscricaoLister interface {
	ListByTurma(ctx context.Context, turmaID string) ([]models.InscricaoDetail, error)
}

type turmaPresencaLister interface {
	ListByTurma(ctx context.Context, turmaID string) ([]models.PresencaDetail, error)
}

type turmaAvaliacaoLister interface {
	ListByTurma(ctx context.Context, turmaID string) ([]models.AvaliacaoDetail, error)
}

type projectionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool)
}

// TurmaConfig tunes the class listing projection.
type TurmaConfig struct {
	AvailableCacheTTL time.Duration
	DefaultCapacity   int
}

// TurmaService manages class offerings and their availability projection.
type TurmaService struct {
	repo       turmaRepository
	speakers   turmaSpeakerLister
	inscricoes turmaInscricaoLister
	presencas  turmaPresencaLister
	avaliacoes turmaAvaliacaoLister
	cache      projectionCache
	audit      auditWriter
	metrics    cacheMetrics
	validator  *validator.Validate
	logger     *zap.Logger
	config     TurmaConfig
	now        func() time.Time
}

// NewTurmaService constructs a TurmaService.
func NewTurmaService(
	repo turmaRepository,
	speakers turmaSpeakerLister,
	inscricoes turmaInscricaoLister,
	presencas turmaPresencaLister,
	avaliacoes turmaAvaliacaoLister,
	cache projectionCache,
	audit auditWriter,
	metrics cacheMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	config TurmaConfig,
) *TurmaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AvailableCacheTTL <= 0 {
		config.AvailableCacheTTL = time.Minute
	}
	if config.DefaultCapacity <= 0 {
		config.DefaultCapacity = 50
	}
	return &TurmaService{
		repo:       repo,
		speakers:   speakers,
		inscricoes: inscricoes,
		presencas:  presencas,
		avaliacoes: avaliacoes,
		cache:      cache,
		audit:      audit,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		config:     config,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// List returns all turmas matching the filter with seat accounting applied.
func (s *TurmaService) List(ctx context.Context, filter models.TurmaFilter) ([]models.TurmaDisponivel, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	turmas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list turmas")
	}

	now := s.now()
	for i := range turmas {
		s.project(&turmas[i], now)
	}

	return turmas, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListAvailable returns open turmas with seat availability, served from cache
// when a fresh projection is available. The projection is advisory: the
// transactional enrollment check remains the source of truth.
func (s *TurmaService) ListAvailable(ctx context.Context, campusID string) ([]models.TurmaDisponivel, error) {
	key := fmt.Sprintf("%s:%s", turmasAvailableCachePrefix, campusID)
	if campusID == "" {
		key = fmt.Sprintf("%s:all", turmasAvailableCachePrefix)
	}

	var cached []models.TurmaDisponivel
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	turmas, _, err := s.repo.List(ctx, models.TurmaFilter{
		CampusID: campusID,
		Status:   models.TurmaStatusAberta,
		PageSize: 500,
		Page:     1,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available turmas")
	}

	now := s.now()
	available := make([]models.TurmaDisponivel, 0, len(turmas))
	for i := range turmas {
		s.project(&turmas[i], now)
		if turmas[i].InscricoesAbertas {
			available = append(available, turmas[i])
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, available, s.config.AvailableCacheTTL); err != nil {
			s.logger.Warn("failed to cache available turmas", zap.Error(err))
		}
	}

	return available, nil
}

// Get returns the full detail view of a turma including speakers,
// enrollments, attendance and evaluations.
func (s *TurmaService) Get(ctx context.Context, id string) (*models.TurmaDetail, error) {
	turma, err := s.repo.FindDisponivelByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "turma not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}

	s.project(turma, s.now())

	detail := &models.TurmaDetail{
		Turma:            turma.Turma,
		CampusNome:       turma.CampusNome,
		VagasDisponiveis: turma.VagasDisponiveis,
		TotalInscritos:   turma.TotalInscritos,
		EffectiveStatus:  turma.EffectiveStatus,
	}

	if detail.Speakers, err = s.speakers.ListByTurma(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load speakers")
	}
	if detail.Inscricoes, err = s.inscricoes.ListByTurma(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	if detail.Presencas, err = s.presencas.ListByTurma(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if detail.Avaliacoes, err = s.avaliacoes.ListByTurma(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluations")
	}

	return detail, nil
}

// Create registers a new turma. Capacity defaults when omitted.
func (s *TurmaService) Create(ctx context.Context, req models.TurmaRequest, actorID string) (*models.Turma, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid turma payload")
	}

	capacidade := req.Capacidade
	if capacidade <= 0 {
		capacidade = s.config.DefaultCapacity
	}

	now := s.now()
	turma := &models.Turma{
		ID:                  uuid.NewString(),
		CampusID:            req.CampusID,
		Nome:                req.Nome,
		Sobre:               req.Sobre,
		PDFURL:              req.PDFURL,
		FotoCapa:            req.FotoCapa,
		Data:                req.Data,
		DataLimiteInscricao: req.DataLimiteInscricao,
		HoraInicio:          req.HoraInicio,
		HoraFim:             req.HoraFim,
		Local:               req.Local,
		Capacidade:          capacidade,
		Status:              models.TurmaStatusAberta,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Create(ctx, turma); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create turma")
	}

	s.invalidateProjection(ctx)
	s.recordAudit(ctx, actorID, models.AuditActionTurmaCreate, turma.ID, turma)

	return turma, nil
}

// Update modifies an existing turma.
func (s *TurmaService) Update(ctx context.Context, id string, req models.TurmaRequest, actorID string) (*models.Turma, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid turma payload")
	}

	turma, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "turma not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}

	turma.CampusID = req.CampusID
	turma.Nome = req.Nome
	turma.Sobre = req.Sobre
	turma.PDFURL = req.PDFURL
	turma.FotoCapa = req.FotoCapa
	turma.Data = req.Data
	turma.DataLimiteInscricao = req.DataLimiteInscricao
	turma.HoraInicio = req.HoraInicio
	turma.HoraFim = req.HoraFim
	turma.Local = req.Local
	if req.Capacidade > 0 {
		turma.Capacidade = req.Capacidade
	}
	turma.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, turma); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update turma")
	}

	s.invalidateProjection(ctx)
	s.recordAudit(ctx, actorID, models.AuditActionTurmaUpdate, turma.ID, turma)

	return turma, nil
}

// UpdateStatus transitions a turma to a new stored status.
func (s *TurmaService) UpdateStatus(ctx context.Context, id string, status models.TurmaStatus, actorID string) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", status))
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "turma not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update turma status")
	}

	s.invalidateProjection(ctx)
	s.recordAudit(ctx, actorID, models.AuditActionTurmaUpdate, id, map[string]string{"status": string(status)})

	return nil
}

// Delete removes a turma and its dependent records.
func (s *TurmaService) Delete(ctx context.Context, id string, actorID string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "turma not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete turma")
	}

	s.invalidateProjection(ctx)
	s.recordAudit(ctx, actorID, models.AuditActionTurmaDelete, id, nil)

	return nil
}

// InvalidateProjection drops cached availability listings. Called after any
// write that changes seat accounting.
func (s *TurmaService) InvalidateProjection(ctx context.Context) {
	s.invalidateProjection(ctx)
}

func (s *TurmaService) invalidateProjection(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, turmasAvailableCachePrefix+":*"); err != nil {
		s.logger.Warn("failed to invalidate turma projection cache", zap.Error(err))
	}
}

func (s *TurmaService) project(turma *models.TurmaDisponivel, now time.Time) {
	p := availability.Compute(turma.Turma, turma.TotalInscritos, now)
	turma.VagasDisponiveis = p.VagasDisponiveis
	turma.EffectiveStatus = p.EffectiveStatus
	turma.InscricoesAbertas = availability.CanEnroll(p)
}

func (s *TurmaService) recordAudit(ctx context.Context, actorID, action, resourceID string, payload interface{}) {
	if s.audit == nil {
		return
	}
	var newValues []byte
	if payload != nil {
		newValues, _ = json.Marshal(payload)
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "turmas",
		ResourceID: &resourceID,
		NewValues:  newValues,
	}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record turma audit log", zap.Error(err))
	}
}
