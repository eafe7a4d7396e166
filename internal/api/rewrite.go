package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/rewrite"
	"github.com/stwalsh4118/prompter/internal/script"
)

// RewriteTextRequest asks for free text to be rewritten
type RewriteTextRequest struct {
	Text string `json:"text"`
	Tone string `json:"tone" binding:"required"`
}

// RewriteScriptRequest asks for a stored script to be rewritten. With Save
// the result replaces the script content.
type RewriteScriptRequest struct {
	Tone string `json:"tone" binding:"required"`
	Save bool   `json:"save"`
}

// RewriteResponse carries the rewritten text
type RewriteResponse struct {
	Text      string          `json:"text"`
	Tone      string          `json:"tone"`
	Unchanged bool            `json:"unchanged"`
	Script    *ScriptResponse `json:"script,omitempty"`
}

// RewriteHandler handles AI rewrite requests
type RewriteHandler struct {
	rewriteService *rewrite.Service
	scriptService  *script.ScriptService
}

// NewRewriteHandler creates a new rewrite handler instance
func NewRewriteHandler(rewriteService *rewrite.Service, scriptService *script.ScriptService) *RewriteHandler {
	return &RewriteHandler{
		rewriteService: rewriteService,
		scriptService:  scriptService,
	}
}

// respondRewriteError maps rewrite errors to HTTP responses
func respondRewriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rewrite.ErrEmptyText), errors.Is(err, rewrite.ErrInvalidTone):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	case rewrite.IsUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "rewrite_unavailable",
			Message: err.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Error:   "rewrite_timeout",
			Message: "The rewrite model did not answer in time",
		})
	default:
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "rewrite_failed",
			Message: "Failed to rewrite script",
		})
	}
}

// RewriteText handles POST /api/rewrite
func (h *RewriteHandler) RewriteText(c *gin.Context) {
	var req RewriteTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	result, err := h.rewriteService.Enhance(c.Request.Context(), req.Text, req.Tone)
	if err != nil {
		respondRewriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, RewriteResponse{
		Text:      result.Text,
		Tone:      string(result.Tone),
		Unchanged: result.Unchanged,
	})
}

// RewriteScript handles POST /api/scripts/:id/rewrite
func (h *RewriteHandler) RewriteScript(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "script")
	if !ok {
		return
	}

	var req RewriteScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	lookupCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	found, err := h.scriptService.GetByID(lookupCtx, id)
	cancel()
	if err != nil {
		respondScriptError(c, err, "query_failed")
		return
	}

	result, err := h.rewriteService.Enhance(c.Request.Context(), found.Content, req.Tone)
	if err != nil {
		respondRewriteError(c, err)
		return
	}

	response := RewriteResponse{
		Text:      result.Text,
		Tone:      string(result.Tone),
		Unchanged: result.Unchanged,
	}

	if req.Save && !result.Unchanged {
		saveCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		updated, err := h.scriptService.Update(saveCtx, id, nil, &result.Text)
		if err != nil {
			logger.Log.Error().
				Err(err).
				Str("script_id", id.String()).
				Msg("Failed to save rewritten script")
			respondScriptError(c, err, "update_failed")
			return
		}
		response.Script = toScriptResponse(updated)
	}

	c.JSON(http.StatusOK, response)
}

// SetupRewriteRoutes registers the AI rewrite routes
func SetupRewriteRoutes(apiGroup *gin.RouterGroup, rewriteService *rewrite.Service, scriptService *script.ScriptService) {
	handler := NewRewriteHandler(rewriteService, scriptService)

	apiGroup.POST("/rewrite", handler.RewriteText)
	apiGroup.POST("/scripts/:id/rewrite", handler.RewriteScript)
}
