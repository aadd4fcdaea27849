package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduforma/turmas-api/internal/models"
	"github.com/eduforma/turmas-api/internal/service"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
	"github.com/eduforma/turmas-api/pkg/response"
)

// TurmaHandler exposes class offering endpoints.
type TurmaHandler struct {
	service *service.TurmaService
}

// NewTurmaHandler creates a new handler.
func NewTurmaHandler(svc *service.TurmaService) *TurmaHandler {
	return &TurmaHandler{service: svc}
}

// List godoc
// @Summary List turmas
// @Description List turmas with filters, seat availability included
// @Tags Turmas
// @Produce json
// @Security BearerAuth
// @Param campus_id query string false "Campus filter"
// @Param status query string false "Status filter"
// @Param search query string false "Name search"
// @Param date_from query string false "Start date (RFC 3339)"
// @Param date_to query string false "End date (RFC 3339)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /turmas [get]
func (h *TurmaHandler) List(c *gin.Context) {
	filter := models.TurmaFilter{
		CampusID:  c.Query("campus_id"),
		Status:    models.TurmaStatus(c.Query("status")),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.DateFrom = &t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.DateTo = &t
		}
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	turmas, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, turmas, pagination)
}

// ListAvailable godoc
// @Summary List turmas open for enrollment
// @Description Open turmas with free seats; the seat count is advisory
// @Tags Turmas
// @Produce json
// @Security BearerAuth
// @Param campus_id query string false "Campus filter"
// @Success 200 {object} response.Envelope
// @Router /turmas/disponiveis [get]
func (h *TurmaHandler) ListAvailable(c *gin.Context) {
	turmas, err := h.service.ListAvailable(c.Request.Context(), c.Query("campus_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, turmas, nil)
}

// Get godoc
// @Summary Get turma detail
// @Description Full detail including speakers, enrollments, attendance and evaluations
// @Tags Turmas
// @Produce json
// @Security BearerAuth
// @Param id path string true "Turma ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /turmas/{id} [get]
func (h *TurmaHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create turma
// @Tags Turmas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.TurmaRequest true "Turma payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /turmas [post]
func (h *TurmaHandler) Create(c *gin.Context) {
	var req models.TurmaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid turma payload"))
		return
	}

	turma, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, turma)
}

// Update godoc
// @Summary Update turma
// @Tags Turmas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Turma ID"
// @Param payload body models.TurmaRequest true "Turma payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /turmas/{id} [put]
func (h *TurmaHandler) Update(c *gin.Context) {
	var req models.TurmaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid turma payload"))
		return
	}

	turma, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, turma, nil)
}

type turmaStatusPayload struct {
	Status models.TurmaStatus `json:"status" binding:"required"`
}

// UpdateStatus godoc
// @Summary Update turma status
// @Description Transition the stored status (ABERTA, ENCERRADA, CONCLUIDA)
// @Tags Turmas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Turma ID"
// @Param payload body turmaStatusPayload true "Status payload"
// @Success 204 "No Content"
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /turmas/{id}/status [patch]
func (h *TurmaHandler) UpdateStatus(c *gin.Context) {
	var req turmaStatusPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, actorID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Delete godoc
// @Summary Delete turma
// @Tags Turmas
// @Security BearerAuth
// @Param id path string true "Turma ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Router /turmas/{id} [delete]
func (h *TurmaHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}
