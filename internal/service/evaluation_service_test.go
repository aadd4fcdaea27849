package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
)

type fakeAvaliacaoRepo struct {
	created  []*models.Avaliacao
	existing map[string]bool
}

func (f *fakeAvaliacaoRepo) Create(ctx context.Context, avaliacao *models.Avaliacao) error {
	f.created = append(f.created, avaliacao)
	return nil
}

func (f *fakeAvaliacaoRepo) Exists(ctx context.Context, turmaID, userID string) (bool, error) {
	return f.existing[turmaID+"/"+userID], nil
}

func (f *fakeAvaliacaoRepo) ListByTurma(ctx context.Context, turmaID string) ([]models.AvaliacaoDetail, error) {
	return nil, nil
}

type fakePresencaReader struct {
	presencas map[string]*models.Presenca
}

func (f *fakePresencaReader) FindByTurmaAndUser(ctx context.Context, turmaID, userID string) (*models.Presenca, error) {
	if p, ok := f.presencas[turmaID+"/"+userID]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type fakeTurmaReader struct {
	turmas map[string]*models.Turma
}

func (f *fakeTurmaReader) FindByID(ctx context.Context, id string) (*models.Turma, error) {
	if t, ok := f.turmas[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func newEvaluationServiceForTest(repo *fakeAvaliacaoRepo, presencas *fakePresencaReader, turmas *fakeTurmaReader) *EvaluationService {
	return NewEvaluationService(repo, presencas, turmas, nil, zap.NewNop())
}

func TestEvaluationServiceCanSubmit(t *testing.T) {
	turmas := &fakeTurmaReader{turmas: map[string]*models.Turma{
		"concluida": {ID: "concluida", Status: models.TurmaStatusConcluida},
		"aberta":    {ID: "aberta", Status: models.TurmaStatusAberta},
	}}
	presencas := &fakePresencaReader{presencas: map[string]*models.Presenca{
		"concluida/present": {TurmaID: "concluida", UserID: "present", Presente: true},
		"concluida/absent":  {TurmaID: "concluida", UserID: "absent", Presente: false},
	}}
	repo := &fakeAvaliacaoRepo{existing: map[string]bool{"concluida/done": true}}
	// "done" was present and already submitted.
	presencas.presencas["concluida/done"] = &models.Presenca{Presente: true}
	svc := newEvaluationServiceForTest(repo, presencas, turmas)
	ctx := context.Background()

	tests := []struct {
		name   string
		turma  string
		user   string
		can    bool
		reason string
	}{
		{"eligible", "concluida", "present", true, ""},
		{"turma not concluded", "aberta", "present", false, EvalReasonTurmaNotConcluded},
		{"marked absent", "concluida", "absent", false, EvalReasonNotPresent},
		{"never marked", "concluida", "unknown", false, EvalReasonNotPresent},
		{"already submitted", "concluida", "done", false, EvalReasonAlreadySubmitted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eligibility, err := svc.CanSubmit(ctx, tc.turma, tc.user)
			require.NoError(t, err)
			assert.Equal(t, tc.can, eligibility.CanSubmit)
			assert.Equal(t, tc.reason, eligibility.Reason)
		})
	}
}

func TestEvaluationServiceSubmit(t *testing.T) {
	turmas := &fakeTurmaReader{turmas: map[string]*models.Turma{
		"turma-1": {ID: "turma-1", Status: models.TurmaStatusConcluida},
	}}
	presencas := &fakePresencaReader{presencas: map[string]*models.Presenca{
		"turma-1/user-1": {Presente: true},
	}}
	repo := &fakeAvaliacaoRepo{existing: map[string]bool{}}
	svc := newEvaluationServiceForTest(repo, presencas, turmas)

	respostas, _ := json.Marshal(map[string]string{"conteudo": "excelente"})
	avaliacao, err := svc.Submit(context.Background(), "turma-1", "user-1", models.SubmitAvaliacaoRequest{
		Respostas: respostas,
		NPS:       9,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, avaliacao.NPS)
	require.Len(t, repo.created, 1)
}

func TestEvaluationServiceSubmitRejectsNPSOutOfRange(t *testing.T) {
	turmas := &fakeTurmaReader{turmas: map[string]*models.Turma{
		"turma-1": {ID: "turma-1", Status: models.TurmaStatusConcluida},
	}}
	presencas := &fakePresencaReader{presencas: map[string]*models.Presenca{
		"turma-1/user-1": {Presente: true},
	}}
	repo := &fakeAvaliacaoRepo{existing: map[string]bool{}}
	svc := newEvaluationServiceForTest(repo, presencas, turmas)

	_, err := svc.Submit(context.Background(), "turma-1", "user-1", models.SubmitAvaliacaoRequest{NPS: 11})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestEvaluationServiceSubmitIneligible(t *testing.T) {
	turmas := &fakeTurmaReader{turmas: map[string]*models.Turma{
		"turma-1": {ID: "turma-1", Status: models.TurmaStatusConcluida},
	}}
	presencas := &fakePresencaReader{presencas: map[string]*models.Presenca{}}
	repo := &fakeAvaliacaoRepo{existing: map[string]bool{}}
	svc := newEvaluationServiceForTest(repo, presencas, turmas)

	_, err := svc.Submit(context.Background(), "turma-1", "user-1", models.SubmitAvaliacaoRequest{NPS: 8})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEvaluationServiceSubmitTwiceConflicts(t *testing.T) {
	turmas := &fakeTurmaReader{turmas: map[string]*models.Turma{
		"turma-1": {ID: "turma-1", Status: models.TurmaStatusConcluida},
	}}
	presencas := &fakePresencaReader{presencas: map[string]*models.Presenca{
		"turma-1/user-1": {Presente: true},
	}}
	repo := &fakeAvaliacaoRepo{existing: map[string]bool{"turma-1/user-1": true}}
	svc := newEvaluationServiceForTest(repo, presencas, turmas)

	_, err := svc.Submit(context.Background(), "turma-1", "user-1", models.SubmitAvaliacaoRequest{NPS: 8})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
