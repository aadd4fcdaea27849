package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
)

type fakePresencaRepo struct {
	upserts []*models.Presenca
}

func (f *fakePresencaRepo) Upsert(ctx context.Context, presenca *models.Presenca) error {
	f.upserts = append(f.upserts, presenca)
	return nil
}

func (f *fakePresencaRepo) FindByTurmaAndUser(ctx context.Context, turmaID, userID string) (*models.Presenca, error) {
	return nil, sql.ErrNoRows
}

func (f *fakePresencaRepo) ListByTurma(ctx context.Context, turmaID string) ([]models.PresencaDetail, error) {
	return nil, nil
}

func (f *fakePresencaRepo) ListByUser(ctx context.Context, userID string) ([]models.Presenca, error) {
	return nil, nil
}

type fakeEnrollmentLister struct {
	rows []models.InscricaoDetail
}

func (f *fakeEnrollmentLister) ListByTurma(ctx context.Context, turmaID string) ([]models.InscricaoDetail, error) {
	return f.rows, nil
}

func newAttendanceServiceForTest(repo *fakePresencaRepo, enrollments *fakeEnrollmentLister) *AttendanceService {
	turmas := &fakeTurmaReader{turmas: map[string]*models.Turma{
		"turma-1": {ID: "turma-1", Status: models.TurmaStatusAberta},
	}}
	return NewAttendanceService(repo, turmas, enrollments, nil, nil, zap.NewNop())
}

func TestAttendanceServiceMark(t *testing.T) {
	repo := &fakePresencaRepo{}
	enrollments := &fakeEnrollmentLister{rows: []models.InscricaoDetail{
		{Inscricao: models.Inscricao{UserID: "user-1", Status: models.InscricaoStatusAtiva}},
	}}
	svc := newAttendanceServiceForTest(repo, enrollments)

	presenca, err := svc.Mark(context.Background(), "turma-1", models.MarkPresencaRequest{
		UserID:   "user-1",
		Presente: true,
	}, "gestor-1")
	require.NoError(t, err)
	assert.True(t, presenca.Presente)
	require.NotNil(t, presenca.MarcadoPor)
	assert.Equal(t, "gestor-1", *presenca.MarcadoPor)
	require.Len(t, repo.upserts, 1)
}

func TestAttendanceServiceMarkRequiresActiveEnrollment(t *testing.T) {
	repo := &fakePresencaRepo{}
	enrollments := &fakeEnrollmentLister{rows: []models.InscricaoDetail{
		{Inscricao: models.Inscricao{UserID: "user-1", Status: models.InscricaoStatusCancelada}},
	}}
	svc := newAttendanceServiceForTest(repo, enrollments)

	_, err := svc.Mark(context.Background(), "turma-1", models.MarkPresencaRequest{
		UserID:   "user-1",
		Presente: true,
	}, "gestor-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserts)
}

func TestAttendanceServiceMarkUnknownTurma(t *testing.T) {
	svc := newAttendanceServiceForTest(&fakePresencaRepo{}, &fakeEnrollmentLister{})

	_, err := svc.Mark(context.Background(), "missing", models.MarkPresencaRequest{
		UserID:   "user-1",
		Presente: true,
	}, "gestor-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
