package handler

import (
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

type enrollmentRepoStub struct {
	enrollResult *models.EnrollmentResult
	enrollErr    error
	findResult   *models.Inscricao
	findErr      error
	cancelResult *models.Inscricao
	byTurma      []models.InscricaoDetail
	byUser       []models.InscricaoWithTurma

	enrolledTurma string
	enrolledUser  string
}

func (r *enrollmentRepoStub) Enroll(ctx context.Context, turmaID, userID string, now time.Time) (*models.EnrollmentResult, error) {
	r.enrolledTurma = turmaID
	r.enrolledUser = userID
	return r.enrollResult, r.enrollErr
}

func (r *enrollmentRepoStub) FindByID(ctx context.Context, id string) (*models.Inscricao, error) {
	return r.findResult, r.findErr
}

func (r *enrollmentRepoStub) Cancel(ctx context.Context, id string) (*models.Inscricao, error) {
	return r.cancelResult, nil
}

func (r *enrollmentRepoStub) ListByTurma(ctx context.Context, turmaID string) ([]models.InscricaoDetail, error) {
	return r.byTurma, nil
}

func (r *enrollmentRepoStub) ListByUser(ctx context.Context, userID string) ([]models.InscricaoWithTurma, error) {
	return r.byUser, nil
}

func newEnrollmentTestContext(t *testing.T, method, path string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestEnrollmentHandlerEnrollConfirmed(t *testing.T) {
	repo := &enrollmentRepoStub{
		enrollResult: &models.EnrollmentResult{
			Success:   true,
			Inscricao: &models.Inscricao{ID: "insc-1", TurmaID: "turma-1", UserID: "user-1", Status: models.InscricaoStatusAtiva},
		},
	}
	handler := NewEnrollmentHandler(service.NewEnrollmentService(repo, nil, nil, nil, nil))

	c, w := newEnrollmentTestContext(t, http.MethodPost, "/turmas/turma-1/inscricoes", &models.JWTClaims{UserID: "user-1", Role: models.RoleProfessor})
	c.Params = gin.Params{{Key: "id", Value: "turma-1"}}

	handler.Enroll(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "turma-1", repo.enrolledTurma)
	assert.Equal(t, "user-1", repo.enrolledUser)

	var envelope struct {
		Data models.EnrollmentResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Success)
	assert.Equal(t, "insc-1", envelope.Data.Inscricao.ID)
}

func TestEnrollmentHandlerEnrollRejectionIsNotAnError(t *testing.T) {
	repo := &enrollmentRepoStub{
		enrollResult: &models.EnrollmentResult{Success: false, Message: models.EnrollMsgFull},
	}
	handler := NewEnrollmentHandler(service.NewEnrollmentService(repo, nil, nil, nil, nil))

	c, w := newEnrollmentTestContext(t, http.MethodPost, "/turmas/turma-1/inscricoes", &models.JWTClaims{UserID: "user-1", Role: models.RoleProfessor})
	c.Params = gin.Params{{Key: "id", Value: "turma-1"}}

	handler.Enroll(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.EnrollmentResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Success)
	assert.Equal(t, models.EnrollMsgFull, envelope.Data.Message)
}

func TestEnrollmentHandlerEnrollWithoutClaims(t *testing.T) {
	handler := NewEnrollmentHandler(service.NewEnrollmentService(&enrollmentRepoStub{}, nil, nil, nil, nil))

	c, w := newEnrollmentTestContext(t, http.MethodPost, "/turmas/turma-1/inscricoes", nil)
	c.Params = gin.Params{{Key: "id", Value: "turma-1"}}

	handler.Enroll(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnrollmentHandlerCancelForbiddenForStranger(t *testing.T) {
	repo := &enrollmentRepoStub{
		findResult: &models.Inscricao{ID: "insc-1", TurmaID: "turma-1", UserID: "owner", Status: models.InscricaoStatusAtiva},
	}
	handler := NewEnrollmentHandler(service.NewEnrollmentService(repo, nil, nil, nil, nil))

	c, w := newEnrollmentTestContext(t, http.MethodDelete, "/inscricoes/insc-1", &models.JWTClaims{UserID: "stranger", Role: models.RoleProfessor})
	c.Params = gin.Params{{Key: "id", Value: "insc-1"}}

	handler.Cancel(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestEnrollmentHandlerCancelNotFound(t *testing.T) {
	repo := &enrollmentRepoStub{findErr: sql.ErrNoRows}
	handler := NewEnrollmentHandler(service.NewEnrollmentService(repo, nil, nil, nil, nil))

	c, w := newEnrollmentTestContext(t, http.MethodDelete, "/inscricoes/missing", &models.JWTClaims{UserID: "user-1", Role: models.RoleGestor})
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Cancel(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnrollmentHandlerListMine(t *testing.T) {
	repo := &enrollmentRepoStub{
		byUser: []models.InscricaoWithTurma{
			{Inscricao: models.Inscricao{ID: "insc-1", TurmaID: "turma-1", UserID: "user-1", Status: models.InscricaoStatusAtiva}, CampusNome: "Centro"},
		},
	}
	handler := NewEnrollmentHandler(service.NewEnrollmentService(repo, nil, nil, nil, nil))

	c, w := newEnrollmentTestContext(t, http.MethodGet, "/me/inscricoes", &models.JWTClaims{UserID: "user-1", Role: models.RoleProfessor})

	handler.ListMine(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Centro")
}
