package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/internal/middleware"
	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/response"
)

type settingsService interface {
	Get(ctx context.Context, entityType string) (*models.EntitySettings, bool, error)
	Update(ctx context.Context, entityType string, req dto.UpdateSettingsRequest) (*models.EntitySettings, error)
}

// SettingsHandler exposes per-entity status configuration.
type SettingsHandler struct {
	service settingsService
}

// NewSettingsHandler builds a new handler.
func NewSettingsHandler(service settingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Get godoc
// @Summary Get entity settings
// @Description Returns the status transitions and status colors configured for an entity type.
// @Tags Settings
// @Produce json
// @Param entityType path string true "Entity type" Enums(driver, employee, truck, equipment, incident, violation, wcb_claim)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/{entityType} [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, hit, err := h.service.Get(c.Request.Context(), strings.ToLower(c.Param("entityType")))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, settings, nil, middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Replace entity settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type"
// @Param payload body dto.UpdateSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /settings/{entityType} [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	settings, err := h.service.Update(c.Request.Context(), strings.ToLower(c.Param("entityType")), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
