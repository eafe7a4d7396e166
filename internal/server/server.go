// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/prompter/internal/api"
	"github.com/stwalsh4118/prompter/internal/config"
	"github.com/stwalsh4118/prompter/internal/db"
	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/middleware"
	"github.com/stwalsh4118/prompter/internal/prompter"
	"github.com/stwalsh4118/prompter/internal/rewrite"
	"github.com/stwalsh4118/prompter/internal/script"
	"github.com/stwalsh4118/prompter/internal/settings"
)

// Server represents the HTTP server
type Server struct {
	config          *config.Config
	db              *db.DB
	repos           *db.Repositories
	scriptService   *script.ScriptService
	settingsService *settings.SettingsService
	rewriteService  *rewrite.Service
	sessionManager  *prompter.Manager
	router          *gin.Engine
	server          *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	scriptService := script.NewScriptService(database, repos)
	settingsService := settings.NewSettingsService(repos)
	sessionManager := prompter.NewManager(scriptService, settingsService, &cfg.Prompter)
	rewriteService := rewrite.NewServiceFromConfig(&cfg.Rewrite)

	// Open sessions follow script edits and deletions
	scriptService.SetObserver(sessionManager)

	return &Server{
		config:          cfg,
		db:              database,
		repos:           repos,
		scriptService:   scriptService,
		settingsService: settingsService,
		rewriteService:  rewriteService,
		sessionManager:  sessionManager,
	}
}

// Handler returns the router, building it on first use
func (s *Server) Handler() http.Handler {
	if s.router == nil {
		s.setupRouter()
	}
	return s.router
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(cors.Default()) // allows all origins

	apiGroup := s.router.Group("/api")

	api.SetupHealthRoutes(apiGroup, s.db, s.sessionManager, s.rewriteService)
	api.SetupScriptRoutes(apiGroup, s.scriptService)
	api.SetupRewriteRoutes(apiGroup, s.rewriteService, s.scriptService)
	api.SetupSettingsRoutes(apiGroup, s.settingsService)
	api.SetupPrompterRoutes(apiGroup, s.sessionManager, s.settingsService)
}

// Start starts the HTTP server. It returns nil once Shutdown has stopped it.
func (s *Server) Start() error {
	handler := s.Handler()

	if err := s.sessionManager.Start(); err != nil {
		return fmt.Errorf("failed to start session manager: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Bool("rewrite_configured", s.rewriteService.Configured()).
		Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// Closing the sessions ends their event streams so the HTTP server can drain
	if s.sessionManager != nil {
		s.sessionManager.Stop()
	}

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
