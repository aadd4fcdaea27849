package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/availability"
	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
)

// fakeInscricaoRepo mimics the transactional enroll decision against an
// in-memory turma, so service tests can walk through full capacity cycles.
type fakeInscricaoRepo struct {
	mu         sync.Mutex
	turma      models.Turma
	inscricoes map[string]*models.Inscricao
	nextID     int
}

func newFakeInscricaoRepo(turma models.Turma) *fakeInscricaoRepo {
	return &fakeInscricaoRepo{turma: turma, inscricoes: make(map[string]*models.Inscricao)}
}

func (f *fakeInscricaoRepo) Enroll(ctx context.Context, turmaID, userID string, now time.Time) (*models.EnrollmentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if availability.Compute(f.turma, 0, now).Closed {
		return &models.EnrollmentResult{Message: models.EnrollMsgClosed}, nil
	}

	var existing *models.Inscricao
	for _, i := range f.inscricoes {
		if i.UserID == userID && i.TurmaID == turmaID {
			existing = i
			break
		}
	}
	if existing != nil && existing.Status == models.InscricaoStatusAtiva {
		return &models.EnrollmentResult{Message: models.EnrollMsgAlreadyEnrolled}, nil
	}

	active := 0
	for _, i := range f.inscricoes {
		if i.TurmaID == turmaID && i.Status == models.InscricaoStatusAtiva {
			active++
		}
	}
	if active >= f.turma.Capacidade {
		return &models.EnrollmentResult{Message: models.EnrollMsgFull}, nil
	}

	if existing != nil {
		existing.Status = models.InscricaoStatusAtiva
		existing.UpdatedAt = now
		return &models.EnrollmentResult{Success: true, Inscricao: existing}, nil
	}

	f.nextID++
	inscricao := &models.Inscricao{
		ID:        string(rune('a' + f.nextID)),
		TurmaID:   turmaID,
		UserID:    userID,
		Status:    models.InscricaoStatusAtiva,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.inscricoes[inscricao.ID] = inscricao
	return &models.EnrollmentResult{Success: true, Inscricao: inscricao}, nil
}

func (f *fakeInscricaoRepo) FindByID(ctx context.Context, id string) (*models.Inscricao, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.inscricoes[id]; ok {
		copied := *i
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeInscricaoRepo) Cancel(ctx context.Context, id string) (*models.Inscricao, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.inscricoes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	i.Status = models.InscricaoStatusCancelada
	copied := *i
	return &copied, nil
}

func (f *fakeInscricaoRepo) ListByTurma(ctx context.Context, turmaID string) ([]models.InscricaoDetail, error) {
	return nil, nil
}

func (f *fakeInscricaoRepo) ListByUser(ctx context.Context, userID string) ([]models.InscricaoWithTurma, error) {
	return nil, nil
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) InvalidateProjection(ctx context.Context) { f.calls++ }

type fakeEnrollMetrics struct{ outcomes []string }

func (f *fakeEnrollMetrics) RecordEnrollmentOutcome(outcome string) {
	f.outcomes = append(f.outcomes, outcome)
}

type fakeAuditWriter struct{ logs []*models.AuditLog }

func (f *fakeAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func openTurma(capacidade int) models.Turma {
	return models.Turma{
		ID:         "turma-1",
		CampusID:   "campus-1",
		Data:       time.Now().UTC().AddDate(0, 0, 7),
		Capacidade: capacidade,
		Status:     models.TurmaStatusAberta,
	}
}

func TestEnrollmentServiceCapacityCycle(t *testing.T) {
	repo := newFakeInscricaoRepo(openTurma(2))
	invalidator := &fakeInvalidator{}
	metrics := &fakeEnrollMetrics{}
	audit := &fakeAuditWriter{}
	svc := NewEnrollmentService(repo, invalidator, audit, metrics, zap.NewNop())
	ctx := context.Background()

	// Two seats: A and B get in.
	resA, err := svc.Enroll(ctx, "turma-1", "user-a")
	require.NoError(t, err)
	require.True(t, resA.Success)

	resB, err := svc.Enroll(ctx, "turma-1", "user-b")
	require.NoError(t, err)
	require.True(t, resB.Success)

	// C is rejected without an error.
	resC, err := svc.Enroll(ctx, "turma-1", "user-c")
	require.NoError(t, err)
	require.False(t, resC.Success)
	assert.Equal(t, models.EnrollMsgFull, resC.Message)

	// B cancels their own enrollment and the seat frees up for C.
	claimsB := &models.JWTClaims{UserID: "user-b", Role: models.RoleProfessor}
	_, err = svc.Cancel(ctx, resB.Inscricao.ID, claimsB)
	require.NoError(t, err)

	resC2, err := svc.Enroll(ctx, "turma-1", "user-c")
	require.NoError(t, err)
	require.True(t, resC2.Success)

	// A is already enrolled.
	resA2, err := svc.Enroll(ctx, "turma-1", "user-a")
	require.NoError(t, err)
	require.False(t, resA2.Success)
	assert.Equal(t, models.EnrollMsgAlreadyEnrolled, resA2.Message)

	assert.Equal(t, []string{
		EnrollOutcomeConfirmed, EnrollOutcomeConfirmed, EnrollOutcomeFull,
		EnrollOutcomeConfirmed, EnrollOutcomeDuplicate,
	}, metrics.outcomes)
	// Three confirmations and one cancellation each invalidate the projection.
	assert.Equal(t, 4, invalidator.calls)
	assert.Len(t, audit.logs, 4)
}

func TestEnrollmentServiceReenrollReactivates(t *testing.T) {
	repo := newFakeInscricaoRepo(openTurma(5))
	svc := NewEnrollmentService(repo, nil, nil, nil, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Enroll(ctx, "turma-1", "user-a")
	require.NoError(t, err)
	require.True(t, first.Success)

	claims := &models.JWTClaims{UserID: "user-a", Role: models.RoleProfessor}
	_, err = svc.Cancel(ctx, first.Inscricao.ID, claims)
	require.NoError(t, err)

	second, err := svc.Enroll(ctx, "turma-1", "user-a")
	require.NoError(t, err)
	require.True(t, second.Success)
	// The canceled row is reactivated, not duplicated.
	assert.Equal(t, first.Inscricao.ID, second.Inscricao.ID)
}

func TestEnrollmentServiceEnrollClosedTurma(t *testing.T) {
	turma := openTurma(5)
	turma.Status = models.TurmaStatusEncerrada
	repo := newFakeInscricaoRepo(turma)
	metrics := &fakeEnrollMetrics{}
	svc := NewEnrollmentService(repo, nil, nil, metrics, zap.NewNop())

	result, err := svc.Enroll(context.Background(), "turma-1", "user-a")
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, models.EnrollMsgClosed, result.Message)
	assert.Equal(t, []string{EnrollOutcomeClosed}, metrics.outcomes)
}

func TestEnrollmentServiceCancelOwnership(t *testing.T) {
	repo := newFakeInscricaoRepo(openTurma(5))
	svc := NewEnrollmentService(repo, nil, nil, nil, zap.NewNop())
	ctx := context.Background()

	result, err := svc.Enroll(ctx, "turma-1", "user-a")
	require.NoError(t, err)

	// Another professor cannot cancel someone else's enrollment.
	stranger := &models.JWTClaims{UserID: "user-b", Role: models.RoleProfessor}
	_, err = svc.Cancel(ctx, result.Inscricao.ID, stranger)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// A GESTOR can.
	gestor := &models.JWTClaims{UserID: "gestor-1", Role: models.RoleGestor}
	canceled, err := svc.Cancel(ctx, result.Inscricao.ID, gestor)
	require.NoError(t, err)
	assert.Equal(t, models.InscricaoStatusCancelada, canceled.Status)

	// Canceling twice conflicts.
	_, err = svc.Cancel(ctx, result.Inscricao.ID, gestor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceCancelNotFound(t *testing.T) {
	repo := newFakeInscricaoRepo(openTurma(5))
	svc := NewEnrollmentService(repo, nil, nil, nil, zap.NewNop())

	claims := &models.JWTClaims{UserID: "user-a", Role: models.RoleProfessor}
	_, err := svc.Cancel(context.Background(), "missing", claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
