package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/models"
	"github.com/stwalsh4118/prompter/internal/script"
)

const (
	exportFilename = "prompter-scripts.yaml"
	maxImportBytes = 10 << 20
)

// Request/Response DTOs

// CreateScriptRequest represents a request to create a new script
type CreateScriptRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

// UpdateScriptRequest represents a request to update a script (partial update)
type UpdateScriptRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// ScriptResponse represents a script in API responses
type ScriptResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScriptListResponse represents a list of scripts
type ScriptListResponse struct {
	Scripts []*ScriptResponse `json:"scripts"`
	Total   int               `json:"total"`
}

// ImportResponse reports the outcome of a script import
type ImportResponse struct {
	Imported int `json:"imported"`
}

// ScriptHandler handles script-related HTTP requests
type ScriptHandler struct {
	scriptService *script.ScriptService
}

// NewScriptHandler creates a new script handler instance
func NewScriptHandler(scriptService *script.ScriptService) *ScriptHandler {
	return &ScriptHandler{scriptService: scriptService}
}

func toScriptResponse(s *models.Script) *ScriptResponse {
	return &ScriptResponse{
		ID:        s.ID.String(),
		Title:     s.Title,
		Content:   s.Content,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// respondScriptError maps script service errors to HTTP responses
func respondScriptError(c *gin.Context, err error, failure string) {
	switch {
	case script.IsScriptNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Script not found",
		})
	case script.IsValidationError(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   failure,
			Message: "Script operation failed",
		})
	}
}

// CreateScript handles POST /api/scripts
func (h *ScriptHandler) CreateScript(c *gin.Context) {
	var req CreateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	created, err := h.scriptService.Create(ctx, req.Title, req.Content)
	if err != nil {
		if !script.IsValidationError(err) {
			logger.Log.Error().Err(err).Msg("Failed to create script")
		}
		respondScriptError(c, err, "create_failed")
		return
	}

	c.JSON(http.StatusCreated, toScriptResponse(created))
}

// ListScripts handles GET /api/scripts
func (h *ScriptHandler) ListScripts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	scripts, err := h.scriptService.List(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list scripts")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve scripts",
		})
		return
	}

	response := ScriptListResponse{
		Scripts: make([]*ScriptResponse, 0, len(scripts)),
		Total:   len(scripts),
	}
	for _, s := range scripts {
		response.Scripts = append(response.Scripts, toScriptResponse(s))
	}

	c.JSON(http.StatusOK, response)
}

// GetScript handles GET /api/scripts/:id
func (h *ScriptHandler) GetScript(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "script")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	found, err := h.scriptService.GetByID(ctx, id)
	if err != nil {
		if !script.IsScriptNotFound(err) {
			logger.Log.Error().Err(err).Str("script_id", id.String()).Msg("Failed to get script")
		}
		respondScriptError(c, err, "query_failed")
		return
	}

	c.JSON(http.StatusOK, toScriptResponse(found))
}

// UpdateScript handles PUT /api/scripts/:id
func (h *ScriptHandler) UpdateScript(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "script")
	if !ok {
		return
	}

	var req UpdateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	updated, err := h.scriptService.Update(ctx, id, req.Title, req.Content)
	if err != nil {
		respondScriptError(c, err, "update_failed")
		return
	}

	c.JSON(http.StatusOK, toScriptResponse(updated))
}

// DeleteScript handles DELETE /api/scripts/:id
func (h *ScriptHandler) DeleteScript(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "script")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.scriptService.Delete(ctx, id); err != nil {
		respondScriptError(c, err, "delete_failed")
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{Message: "Script deleted successfully"})
}

// ExportScripts handles GET /api/scripts/export
func (h *ScriptHandler) ExportScripts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	data, err := h.scriptService.Export(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to export scripts")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "export_failed",
			Message: "Failed to export scripts",
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	c.Data(http.StatusOK, "application/x-yaml", data)
}

// ImportScripts handles POST /api/scripts/import. The body is a YAML
// document as produced by the export endpoint.
func (h *ScriptHandler) ImportScripts(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "payload_too_large",
				Message: "Backup document is too large",
			})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to read request body",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	count, err := h.scriptService.Import(ctx, data)
	if err != nil {
		if !script.IsValidationError(err) {
			logger.Log.Error().Err(err).Msg("Failed to import scripts")
		}
		respondScriptError(c, err, "import_failed")
		return
	}

	c.JSON(http.StatusOK, ImportResponse{Imported: count})
}

// SetupScriptRoutes registers all script-related routes
func SetupScriptRoutes(apiGroup *gin.RouterGroup, scriptService *script.ScriptService) {
	handler := NewScriptHandler(scriptService)

	scripts := apiGroup.Group("/scripts")
	{
		scripts.POST("", handler.CreateScript)
		scripts.GET("", handler.ListScripts)
		scripts.GET("/export", handler.ExportScripts)
		scripts.POST("/import", handler.ImportScripts)
		scripts.GET("/:id", handler.GetScript)
		scripts.PUT("/:id", handler.UpdateScript)
		scripts.DELETE("/:id", handler.DeleteScript)
	}
}
