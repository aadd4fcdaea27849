package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/models"
)

type fakeDashboardCounters struct {
	statusCounts map[models.TurmaStatus]int
	active       int
	present      int
	totalMarked  int
	avgNPS       float64
	avaliacoes   int
	calls        int
}

func (f *fakeDashboardCounters) CountByStatus(ctx context.Context) (map[models.TurmaStatus]int, error) {
	f.calls++
	return f.statusCounts, nil
}

func (f *fakeDashboardCounters) CountAllActive(ctx context.Context) (int, error) {
	return f.active, nil
}

func (f *fakeDashboardCounters) CountPresent(ctx context.Context) (int, int, error) {
	return f.present, f.totalMarked, nil
}

func (f *fakeDashboardCounters) AverageNPS(ctx context.Context) (float64, int, error) {
	return f.avgNPS, f.avaliacoes, nil
}

func TestDashboardServiceSummary(t *testing.T) {
	counters := &fakeDashboardCounters{
		statusCounts: map[models.TurmaStatus]int{
			models.TurmaStatusAberta:    4,
			models.TurmaStatusEncerrada: 2,
			models.TurmaStatusConcluida: 9,
		},
		active:      120,
		present:     80,
		totalMarked: 100,
		avgNPS:      8.4,
		avaliacoes:  60,
	}
	svc := NewDashboardService(counters, counters, counters, counters, nil, nil, zap.NewNop(), time.Minute)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TurmasAbertas)
	assert.Equal(t, 2, summary.TurmasEncerradas)
	assert.Equal(t, 9, summary.TurmasConcluidas)
	assert.Equal(t, 120, summary.InscricoesAtivas)
	assert.Equal(t, 100, summary.PresencasMarcadas)
	assert.InDelta(t, 0.8, summary.TaxaPresenca, 0.001)
	assert.InDelta(t, 8.4, summary.NPSMedio, 0.001)
	assert.Equal(t, 60, summary.TotalAvaliacoes)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestDashboardServiceSummaryServedFromCache(t *testing.T) {
	counters := &fakeDashboardCounters{
		statusCounts: map[models.TurmaStatus]int{models.TurmaStatusAberta: 1},
		totalMarked:  0,
	}
	cache := &fakeCache{}
	metrics := &fakeCacheMetrics{}
	svc := NewDashboardService(counters, counters, counters, counters, cache, metrics, zap.NewNop(), time.Minute)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	_, err = svc.Summary(ctx)
	require.NoError(t, err)

	// The second call never hits the repositories.
	assert.Equal(t, 1, counters.calls)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
}

func TestDashboardServiceZeroAttendanceAvoidsDivisionByZero(t *testing.T) {
	counters := &fakeDashboardCounters{statusCounts: map[models.TurmaStatus]int{}}
	svc := NewDashboardService(counters, counters, counters, counters, nil, nil, zap.NewNop(), time.Minute)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TaxaPresenca)
}
