package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduforma/turmas-api/internal/service"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
	"github.com/eduforma/turmas-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler creates a new handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Enroll godoc
// @Summary Enroll in a turma
// @Description Atomically enroll the authenticated user. Business rejections
// @Description (class closed, already enrolled, class full) return 200 with
// @Description success=false and a message, never an error status.
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Turma ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /turmas/{id}/inscricoes [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.service.Enroll(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if result.Success {
		status = http.StatusCreated
	}
	response.JSON(c, status, result, nil)
}

// Cancel godoc
// @Summary Cancel an enrollment
// @Description Cancel an enrollment. Owners may cancel their own; GESTOR may cancel any.
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inscricoes/{id} [delete]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	inscricao, err := h.service.Cancel(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, inscricao, nil)
}

// ListMine godoc
// @Summary List my enrollments
// @Description The authenticated user's enrollments joined with their turmas
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/inscricoes [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	inscricoes, err := h.service.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, inscricoes, nil)
}

// ListByTurma godoc
// @Summary List a turma's enrollments
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Turma ID"
// @Success 200 {object} response.Envelope
// @Router /turmas/{id}/inscricoes [get]
func (h *EnrollmentHandler) ListByTurma(c *gin.Context) {
	inscricoes, err := h.service.ListByTurma(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, inscricoes, nil)
}
