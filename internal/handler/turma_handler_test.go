package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduforma/turmas-api/internal/middleware"
	"github.com/eduforma/turmas-api/internal/models"
	"github.com/eduforma/turmas-api/internal/service"
)

type turmaRepoStub struct {
	listResult []models.TurmaDisponivel
	turma      *models.Turma
	findErr    error

	updatedStatus models.TurmaStatus
}

func (r *turmaRepoStub) List(ctx context.Context, filter models.TurmaFilter) ([]models.TurmaDisponivel, int, error) {
	return r.listResult, len(r.listResult), nil
}

func (r *turmaRepoStub) FindByID(ctx context.Context, id string) (*models.Turma, error) {
	return r.turma, r.findErr
}

func (r *turmaRepoStub) FindDisponivelByID(ctx context.Context, id string) (*models.TurmaDisponivel, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return &models.TurmaDisponivel{Turma: *r.turma}, nil
}

func (r *turmaRepoStub) Create(ctx context.Context, turma *models.Turma) error { return nil }
func (r *turmaRepoStub) Update(ctx context.Context, turma *models.Turma) error { return nil }

func (r *turmaRepoStub) UpdateStatus(ctx context.Context, id string, status models.TurmaStatus) error {
	r.updatedStatus = status
	return nil
}

func (r *turmaRepoStub) Delete(ctx context.Context, id string) error { return nil }

type speakerListerStub struct{}

func (speakerListerStub) ListByTurma(ctx context.Context, turmaID string) ([]models.Speaker, error) {
	return nil, nil
}

type inscricaoListerStub struct{}

func (inscricaoListerStub) ListByTurma(ctx context.Context, turmaID string) ([]models.InscricaoDetail, error) {
	return nil, nil
}

type presencaListerStub struct{}

func (presencaListerStub) ListByTurma(ctx context.Context, turmaID string) ([]models.PresencaDetail, error) {
	return nil, nil
}

type avaliacaoListerStub struct{}

func (avaliacaoListerStub) ListByTurma(ctx context.Context, turmaID string) ([]models.AvaliacaoDetail, error) {
	return nil, nil
}

func newTurmaHandler(repo *turmaRepoStub) *TurmaHandler {
	svc := service.NewTurmaService(
		repo, speakerListerStub{}, inscricaoListerStub{}, presencaListerStub{}, avaliacaoListerStub{},
		nil, nil, nil, nil, nil, service.TurmaConfig{})
	return NewTurmaHandler(svc)
}

func gestorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "gestor-1", Role: models.RoleGestor}
}

func TestTurmaHandlerListProjectsSeats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &turmaRepoStub{
		listResult: []models.TurmaDisponivel{{
			Turma: models.Turma{
				ID:         "turma-1",
				Data:       time.Now().Add(48 * time.Hour),
				Capacidade: 10,
				Status:     models.TurmaStatusAberta,
			},
			CampusNome:     "Centro",
			TotalInscritos: 4,
		}},
	}
	handler := newTurmaHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/turmas", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, gestorClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.TurmaDisponivel `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, 6, envelope.Data[0].VagasDisponiveis)
	assert.True(t, envelope.Data[0].InscricoesAbertas)
}

func TestTurmaHandlerUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &turmaRepoStub{turma: &models.Turma{ID: "turma-1", Status: models.TurmaStatusAberta}}
	handler := newTurmaHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/turmas/turma-1/status", bytes.NewBufferString(`{"status":"CONCLUIDA"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "turma-1"}}
	c.Set(middleware.ContextUserKey, gestorClaims())

	handler.UpdateStatus(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.TurmaStatusConcluida, repo.updatedStatus)
}

func TestTurmaHandlerUpdateStatusRejectsUnknownValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &turmaRepoStub{turma: &models.Turma{ID: "turma-1", Status: models.TurmaStatusAberta}}
	handler := newTurmaHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/turmas/turma-1/status", bytes.NewBufferString(`{"status":"BOGUS"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "turma-1"}}
	c.Set(middleware.ContextUserKey, gestorClaims())

	handler.UpdateStatus(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTurmaHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &turmaRepoStub{findErr: sql.ErrNoRows}
	handler := newTurmaHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/turmas/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, gestorClaims())

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
