package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/settings"
)

// SettingsHandler handles settings HTTP requests
type SettingsHandler struct {
	settingsService *settings.SettingsService
}

// NewSettingsHandler creates a new settings handler instance
func NewSettingsHandler(settingsService *settings.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetSettings handles GET /api/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	current, err := h.settingsService.Get(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve settings",
		})
		return
	}

	c.JSON(http.StatusOK, current)
}

// UpdateSettings handles PUT /api/settings. Omitted fields keep their value.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var patch settings.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	updated, err := h.settingsService.Update(ctx, patch)
	if err != nil {
		respondSettingsError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func respondSettingsError(c *gin.Context, err error) {
	if settings.IsInvalidSettings(err) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_settings",
			Message: err.Error(),
		})
		return
	}
	logger.Log.Error().Err(err).Msg("Failed to update settings")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "update_failed",
		Message: "Failed to update settings",
	})
}

// SetupSettingsRoutes registers the settings routes
func SetupSettingsRoutes(apiGroup *gin.RouterGroup, settingsService *settings.SettingsService) {
	handler := NewSettingsHandler(settingsService)

	apiGroup.GET("/settings", handler.GetSettings)
	apiGroup.PUT("/settings", handler.UpdateSettings)
}
