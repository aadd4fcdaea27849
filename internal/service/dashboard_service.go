package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardTurmaCounter interface {
	CountByStatus(ctx context.Context) (map[models.TurmaStatus]int, error)
}

type dashboardInscricaoCounter interface {
	CountAllActive(ctx context.Context) (int, error)
}

type dashboardPresencaCounter interface {
	CountPresent(ctx context.Context) (present int, total int, err error)
}

type dashboardAvaliacaoAggregator interface {
	AverageNPS(ctx context.Context) (avg float64, count int, err error)
}

// DashboardService assembles the cached manager dashboard summary.
type DashboardService struct {
	turmas     dashboardTurmaCounter
	inscricoes dashboardInscricaoCounter
	presencas  dashboardPresencaCounter
	avaliacoes dashboardAvaliacaoAggregator
	cache      projectionCache
	metrics    cacheMetrics
	logger     *zap.Logger
	cacheTTL   time.Duration
	now        func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(
	turmas dashboardTurmaCounter,
	inscricoes dashboardInscricaoCounter,
	presencas dashboardPresencaCounter,
	avaliacoes dashboardAvaliacaoAggregator,
	cache projectionCache,
	metrics cacheMetrics,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		turmas:     turmas,
		inscricoes: inscricoes,
		presencas:  presencas,
		avaliacoes: avaliacoes,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		cacheTTL:   cacheTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Summary returns the dashboard counters, served from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	if s.cache != nil {
		var cached models.DashboardSummary
		if err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	counts, err := s.turmas.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count turmas")
	}

	active, err := s.inscricoes.CountAllActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}

	present, totalMarked, err := s.presencas.CountPresent(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}

	avgNPS, totalAvaliacoes, err := s.avaliacoes.AverageNPS(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate evaluations")
	}

	summary := &models.DashboardSummary{
		TurmasAbertas:     counts[models.TurmaStatusAberta],
		TurmasEncerradas:  counts[models.TurmaStatusEncerrada],
		TurmasConcluidas:  counts[models.TurmaStatusConcluida],
		InscricoesAtivas:  active,
		PresencasMarcadas: totalMarked,
		NPSMedio:          avgNPS,
		TotalAvaliacoes:   totalAvaliacoes,
		GeneratedAt:       s.now(),
	}
	if totalMarked > 0 {
		summary.TaxaPresenca = float64(present) / float64(totalMarked)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
		}
	}

	return summary, nil
}
