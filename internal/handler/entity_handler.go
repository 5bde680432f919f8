package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/response"
)

type checklistService interface {
	Evaluate(ctx context.Context, entityType, id string) (*dto.ChecklistResponse, error)
}

type statusService interface {
	Options(ctx context.Context, entityType, id string) (*dto.StatusOptionsResponse, error)
	Transition(ctx context.Context, entityType, id, status string, actor *models.JWTClaims) (*dto.UpdateStatusResponse, error)
}

// EntityHandler serves readiness and status endpoints for backend records.
type EntityHandler struct {
	checklists checklistService
	statuses   statusService
}

// NewEntityHandler builds a new handler.
func NewEntityHandler(checklists checklistService, statuses statusService) *EntityHandler {
	return &EntityHandler{checklists: checklists, statuses: statuses}
}

// Checklist godoc
// @Summary Evaluate entity readiness
// @Description Evaluates the checklist of one record: item states, activity gaps and the ready flag.
// @Tags Entities
// @Produce json
// @Param entityType path string true "Entity type"
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /entities/{entityType}/{id}/checklist [get]
func (h *EntityHandler) Checklist(c *gin.Context) {
	entityType, id, err := entityRef(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.checklists.Evaluate(c.Request.Context(), entityType, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// StatusOptions godoc
// @Summary List selectable statuses
// @Tags Entities
// @Produce json
// @Param entityType path string true "Entity type"
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /entities/{entityType}/{id}/status-options [get]
func (h *EntityHandler) StatusOptions(c *gin.Context) {
	entityType, id, err := entityRef(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	options, err := h.statuses.Options(c.Request.Context(), entityType, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// UpdateStatus godoc
// @Summary Change entity status
// @Tags Entities
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type"
// @Param id path string true "Record ID"
// @Param payload body dto.UpdateStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /entities/{entityType}/{id}/status [put]
func (h *EntityHandler) UpdateStatus(c *gin.Context) {
	entityType, id, err := entityRef(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	actor, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	result, err := h.statuses.Transition(c.Request.Context(), entityType, id, req.Status, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
