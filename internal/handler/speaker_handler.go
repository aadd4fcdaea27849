package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduforma/turmas-api/internal/models"
	"github.com/eduforma/turmas-api/internal/service"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
	"github.com/eduforma/turmas-api/pkg/response"
)

// SpeakerHandler exposes speaker CRUD and turma assignment endpoints.
type SpeakerHandler struct {
	service *service.SpeakerService
}

// NewSpeakerHandler creates a new handler.
func NewSpeakerHandler(svc *service.SpeakerService) *SpeakerHandler {
	return &SpeakerHandler{service: svc}
}

// List godoc
// @Summary List speakers
// @Tags Speakers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /speakers [get]
func (h *SpeakerHandler) List(c *gin.Context) {
	speakers, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, speakers, nil)
}

// Get godoc
// @Summary Get speaker
// @Tags Speakers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Speaker ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /speakers/{id} [get]
func (h *SpeakerHandler) Get(c *gin.Context) {
	speaker, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, speaker, nil)
}

// Create godoc
// @Summary Create speaker
// @Tags Speakers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SpeakerRequest true "Speaker payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /speakers [post]
func (h *SpeakerHandler) Create(c *gin.Context) {
	var req models.SpeakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid speaker payload"))
		return
	}

	speaker, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, speaker)
}

// Update godoc
// @Summary Update speaker
// @Tags Speakers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Speaker ID"
// @Param payload body models.SpeakerRequest true "Speaker payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /speakers/{id} [put]
func (h *SpeakerHandler) Update(c *gin.Context) {
	var req models.SpeakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid speaker payload"))
		return
	}

	speaker, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, speaker, nil)
}

// Delete godoc
// @Summary Delete speaker
// @Tags Speakers
// @Security BearerAuth
// @Param id path string true "Speaker ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Router /speakers/{id} [delete]
func (h *SpeakerHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Attach godoc
// @Summary Attach speaker to turma
// @Tags Speakers
// @Security BearerAuth
// @Param id path string true "Turma ID"
// @Param speakerId path string true "Speaker ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Router /turmas/{id}/speakers/{speakerId} [post]
func (h *SpeakerHandler) Attach(c *gin.Context) {
	if err := h.service.Attach(c.Request.Context(), c.Param("id"), c.Param("speakerId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Detach godoc
// @Summary Detach speaker from turma
// @Tags Speakers
// @Security BearerAuth
// @Param id path string true "Turma ID"
// @Param speakerId path string true "Speaker ID"
// @Success 204 "No Content"
// @Router /turmas/{id}/speakers/{speakerId} [delete]
func (h *SpeakerHandler) Detach(c *gin.Context) {
	if err := h.service.Detach(c.Request.Context(), c.Param("id"), c.Param("speakerId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
