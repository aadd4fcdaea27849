package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduforma/turmas-api/internal/service"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
	"github.com/eduforma/turmas-api/pkg/response"
)

// CampusHandler exposes campus CRUD endpoints.
type CampusHandler struct {
	service *service.CampusService
}

// NewCampusHandler creates a new handler.
func NewCampusHandler(svc *service.CampusService) *CampusHandler {
	return &CampusHandler{service: svc}
}

type campusPayload struct {
	Nome string `json:"nome" binding:"required"`
}

// List godoc
// @Summary List campuses
// @Tags Campuses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /campuses [get]
func (h *CampusHandler) List(c *gin.Context) {
	campuses, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campuses, nil)
}

// Get godoc
// @Summary Get campus
// @Tags Campuses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campus ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /campuses/{id} [get]
func (h *CampusHandler) Get(c *gin.Context) {
	campus, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campus, nil)
}

// Create godoc
// @Summary Create campus
// @Tags Campuses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body campusPayload true "Campus payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /campuses [post]
func (h *CampusHandler) Create(c *gin.Context) {
	var req campusPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid campus payload"))
		return
	}

	campus, err := h.service.Create(c.Request.Context(), req.Nome)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, campus)
}

// Update godoc
// @Summary Update campus
// @Tags Campuses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campus ID"
// @Param payload body campusPayload true "Campus payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /campuses/{id} [put]
func (h *CampusHandler) Update(c *gin.Context) {
	var req campusPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid campus payload"))
		return
	}

	campus, err := h.service.Update(c.Request.Context(), c.Param("id"), req.Nome)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, campus, nil)
}

// Delete godoc
// @Summary Delete campus
// @Tags Campuses
// @Security BearerAuth
// @Param id path string true "Campus ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Router /campuses/{id} [delete]
func (h *CampusHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
