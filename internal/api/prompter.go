package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/prompter"
	"github.com/stwalsh4118/prompter/internal/script"
	"github.com/stwalsh4118/prompter/internal/settings"
)

// OpenSessionRequest represents a request to open a prompter session.
// Zero viewport dimensions use the configured default.
type OpenSessionRequest struct {
	ScriptID       string  `json:"script_id" binding:"required"`
	ViewportWidth  float64 `json:"viewport_width" binding:"gte=0"`
	ViewportHeight float64 `json:"viewport_height" binding:"gte=0"`
}

// ScrollRequest moves the prompter by hand
type ScrollRequest struct {
	Offset *float64 `json:"offset" binding:"required"`
}

// ViewportRequest resizes the prompter surface
type ViewportRequest struct {
	Width  float64 `json:"width" binding:"gt=0"`
	Height float64 `json:"height" binding:"gt=0"`
}

// SessionResponse represents a prompter session in API responses
type SessionResponse struct {
	ID          string            `json:"id"`
	ScriptID    string            `json:"script_id"`
	CreatedAt   time.Time         `json:"created_at"`
	LastAccess  time.Time         `json:"last_access"`
	Subscribers int               `json:"subscribers"`
	Snapshot    prompter.Snapshot `json:"snapshot"`
}

// SessionListResponse represents the list of open sessions
type SessionListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
}

// PrompterHandler handles prompter session HTTP requests
type PrompterHandler struct {
	manager         *prompter.Manager
	settingsService *settings.SettingsService
}

// NewPrompterHandler creates a new prompter handler instance
func NewPrompterHandler(manager *prompter.Manager, settingsService *settings.SettingsService) *PrompterHandler {
	return &PrompterHandler{
		manager:         manager,
		settingsService: settingsService,
	}
}

// respondSessionError maps session and manager errors to HTTP responses
func respondSessionError(c *gin.Context, err error) {
	switch {
	case prompter.IsSessionNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Prompter session not found",
		})
	case prompter.IsSessionClosed(err):
		c.JSON(http.StatusGone, ErrorResponse{
			Error:   "session_closed",
			Message: "Prompter session has been closed",
		})
	case script.IsScriptNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Script not found",
		})
	case errors.Is(err, prompter.ErrInvalidViewport):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, prompter.ErrManagerStopped):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "shutting_down",
			Message: "Server is shutting down",
		})
	default:
		logger.Log.Error().Err(err).Msg("Prompter session request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "session_failed",
			Message: "Prompter session request failed",
		})
	}
}

func toSessionResponse(s *prompter.Session, snap prompter.Snapshot) *SessionResponse {
	return &SessionResponse{
		ID:          s.ID().String(),
		ScriptID:    s.ScriptID().String(),
		CreatedAt:   s.CreatedAt(),
		LastAccess:  s.LastAccess().UTC(),
		Subscribers: s.SubscriberCount(),
		Snapshot:    snap,
	}
}

// lookupSession resolves the :id parameter to an open session, writing the
// error response when it cannot
func (h *PrompterHandler) lookupSession(c *gin.Context) (*prompter.Session, bool) {
	id, ok := parseIDParam(c, "id", "session")
	if !ok {
		return nil, false
	}
	session, err := h.manager.Get(id)
	if err != nil {
		respondSessionError(c, err)
		return nil, false
	}
	return session, true
}

// OpenSession handles POST /api/prompter/sessions
func (h *PrompterHandler) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	scriptID, err := uuid.Parse(req.ScriptID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid script ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	session, err := h.manager.Open(ctx, scriptID, req.ViewportWidth, req.ViewportHeight)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	snap, err := session.Snapshot()
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSessionResponse(session, snap))
}

// ListSessions handles GET /api/prompter/sessions
func (h *PrompterHandler) ListSessions(c *gin.Context) {
	sessions := h.manager.List()

	response := SessionListResponse{
		Sessions: make([]*SessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		snap, err := s.Snapshot()
		if err != nil {
			// Closed between List and Snapshot
			continue
		}
		response.Sessions = append(response.Sessions, toSessionResponse(s, snap))
	}

	c.JSON(http.StatusOK, response)
}

// GetSession handles GET /api/prompter/sessions/:id
func (h *PrompterHandler) GetSession(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	snap, err := session.Snapshot()
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(session, snap))
}

// CloseSession handles DELETE /api/prompter/sessions/:id
func (h *PrompterHandler) CloseSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "session")
	if !ok {
		return
	}

	if err := h.manager.Close(id); err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{Message: "Prompter session closed"})
}

// command runs a session operation and responds with the resulting snapshot
func (h *PrompterHandler) command(c *gin.Context, op func(*prompter.Session) (prompter.Snapshot, error)) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	snap, err := op(session)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// Play handles POST /api/prompter/sessions/:id/play
func (h *PrompterHandler) Play(c *gin.Context) {
	h.command(c, (*prompter.Session).Play)
}

// Pause handles POST /api/prompter/sessions/:id/pause
func (h *PrompterHandler) Pause(c *gin.Context) {
	h.command(c, (*prompter.Session).Pause)
}

// Toggle handles POST /api/prompter/sessions/:id/toggle
func (h *PrompterHandler) Toggle(c *gin.Context) {
	h.command(c, (*prompter.Session).Toggle)
}

// Activity handles POST /api/prompter/sessions/:id/activity
func (h *PrompterHandler) Activity(c *gin.Context) {
	h.command(c, (*prompter.Session).Activity)
}

// Scroll handles POST /api/prompter/sessions/:id/scroll
func (h *PrompterHandler) Scroll(c *gin.Context) {
	var req ScrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	h.command(c, func(s *prompter.Session) (prompter.Snapshot, error) {
		return s.ScrollTo(*req.Offset)
	})
}

// Resize handles PUT /api/prompter/sessions/:id/viewport
func (h *PrompterHandler) Resize(c *gin.Context) {
	var req ViewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Width and height must be positive",
		})
		return
	}

	h.command(c, func(s *prompter.Session) (prompter.Snapshot, error) {
		return s.Resize(req.Width, req.Height)
	})
}

// UpdateSettings handles PUT /api/prompter/sessions/:id/settings. The
// change is persisted and applied to the live session.
func (h *PrompterHandler) UpdateSettings(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

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

	snap, err := session.ApplySettings(*updated)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// StreamEvents handles GET /api/prompter/sessions/:id/events as a stream
// of server-sent snapshot events. A final "closed" event is sent when the
// session closes.
func (h *PrompterHandler) StreamEvents(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	updates, unsubscribe, err := session.Subscribe()
	if err != nil {
		respondSessionError(c, err)
		return
	}
	defer unsubscribe()

	// The server write timeout must not cut the stream
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	log := logger.Log.With().Str("session_id", session.ID().String()).Logger()
	log.Debug().Msg("Snapshot stream opened")

	c.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-updates:
			if !ok {
				c.SSEvent("closed", gin.H{"session_id": session.ID().String()})
				return false
			}
			c.SSEvent("snapshot", snap)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	log.Debug().Msg("Snapshot stream closed")
}

// SetupPrompterRoutes registers the prompter session routes
func SetupPrompterRoutes(apiGroup *gin.RouterGroup, manager *prompter.Manager, settingsService *settings.SettingsService) {
	handler := NewPrompterHandler(manager, settingsService)

	sessions := apiGroup.Group("/prompter/sessions")
	{
		sessions.POST("", handler.OpenSession)
		sessions.GET("", handler.ListSessions)
		sessions.GET("/:id", handler.GetSession)
		sessions.DELETE("/:id", handler.CloseSession)

		sessions.POST("/:id/play", handler.Play)
		sessions.POST("/:id/pause", handler.Pause)
		sessions.POST("/:id/toggle", handler.Toggle)
		sessions.POST("/:id/activity", handler.Activity)
		sessions.POST("/:id/scroll", handler.Scroll)
		sessions.PUT("/:id/settings", handler.UpdateSettings)
		sessions.PUT("/:id/viewport", handler.Resize)
		sessions.GET("/:id/events", handler.StreamEvents)
	}
}
