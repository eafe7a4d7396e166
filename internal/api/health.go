package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/prompter/internal/db"
	"github.com/stwalsh4118/prompter/internal/prompter"
	"github.com/stwalsh4118/prompter/internal/rewrite"
)

// HealthResponse represents the response from the health check endpoint
type HealthResponse struct {
	Status   string                 `json:"status"`
	Database string                 `json:"database"`
	Time     string                 `json:"time"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db       *db.DB
	sessions *prompter.Manager
	rewrite  *rewrite.Service
}

// NewHealthHandler creates a new health check handler. The session manager
// and rewrite service are optional.
func NewHealthHandler(database *db.DB, sessions *prompter.Manager, rewriteService *rewrite.Service) *HealthHandler {
	return &HealthHandler{
		db:       database,
		sessions: sessions,
		rewrite:  rewriteService,
	}
}

// Check handles the health check endpoint
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Details: make(map[string]interface{}),
	}

	if h.sessions != nil {
		response.Details["active_sessions"] = len(h.sessions.List())
	}
	if h.rewrite != nil {
		response.Details["rewrite_configured"] = h.rewrite.Configured()
		response.Details["rewrite_circuit"] = h.rewrite.BreakerState().String()
	}

	// Check database connectivity
	if err := h.db.Health(ctx); err != nil {
		response.Status = "degraded"
		response.Database = "unhealthy"
		response.Details["database_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	response.Database = "healthy"
	c.JSON(http.StatusOK, response)
}

// SetupHealthRoutes registers health check routes
func SetupHealthRoutes(apiGroup *gin.RouterGroup, database *db.DB, sessions *prompter.Manager, rewriteService *rewrite.Service) {
	handler := NewHealthHandler(database, sessions, rewriteService)
	apiGroup.GET("/health", handler.Check)
}
