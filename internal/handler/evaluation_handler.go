package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduforma/turmas-api/internal/models"
	"github.com/eduforma/turmas-api/internal/service"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
	"github.com/eduforma/turmas-api/pkg/response"
)

// EvaluationHandler exposes post-class evaluation endpoints.
type EvaluationHandler struct {
	service *service.EvaluationService
}

// NewEvaluationHandler creates a new handler.
func NewEvaluationHandler(svc *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{service: svc}
}

// Submit godoc
// @Summary Submit an evaluation
// @Description Requires a concluded turma and a presente attendance record; one submission per user
// @Tags Evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Turma ID"
// @Param payload body models.SubmitAvaliacaoRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /turmas/{id}/avaliacoes [post]
func (h *EvaluationHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.SubmitAvaliacaoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evaluation payload"))
		return
	}

	avaliacao, err := h.service.Submit(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, avaliacao)
}

// Eligibility godoc
// @Summary Check evaluation eligibility
// @Description Whether the authenticated user may submit an evaluation for this turma
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Turma ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /turmas/{id}/avaliacoes/eligibility [get]
func (h *EvaluationHandler) Eligibility(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	eligibility, err := h.service.CanSubmit(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, eligibility, nil)
}

// ListByTurma godoc
// @Summary List a turma's evaluations
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Turma ID"
// @Success 200 {object} response.Envelope
// @Router /turmas/{id}/avaliacoes [get]
func (h *EvaluationHandler) ListByTurma(c *gin.Context) {
	avaliacoes, err := h.service.ListByTurma(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, avaliacoes, nil)
}
