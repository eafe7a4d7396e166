package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/prompter/internal/config"
	"github.com/stwalsh4118/prompter/internal/db"
	"github.com/stwalsh4118/prompter/internal/models"
	"github.com/stwalsh4118/prompter/internal/prompter"
	"github.com/stwalsh4118/prompter/internal/rewrite"
	"github.com/stwalsh4118/prompter/internal/script"
	"github.com/stwalsh4118/prompter/internal/settings"
)

// stubRewriter returns a canned rewrite
type stubRewriter struct {
	output string
	err    error
}

func (s *stubRewriter) Rewrite(_ context.Context, text string, tone rewrite.Tone) (string, error) {
	return s.output, s.err
}

type testEnv struct {
	router   *gin.Engine
	database *db.DB
	scripts  *script.ScriptService
	settings *settings.SettingsService
	manager  *prompter.Manager
}

// setupTestDB creates a migrated database in a temp directory
func setupTestDB(t *testing.T) (*db.DB, *db.Repositories) {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, "file://../../migrations"))

	return database, db.NewRepositories(database)
}

// setupTestEnv wires every route against a temp database. A nil rewriter
// leaves AI rewrite unconfigured.
func setupTestEnv(t *testing.T, rewriter rewrite.Rewriter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, repos := setupTestDB(t)

	scriptService := script.NewScriptService(database, repos)
	settingsService := settings.NewSettingsService(repos)

	manager := prompter.NewManager(scriptService, settingsService, &config.PrompterConfig{
		FrameInterval:   2 * time.Millisecond,
		StatsInterval:   10 * time.Millisecond,
		ControlsTimeout: 50 * time.Millisecond,
		IdleTimeout:     time.Hour,
		CleanupInterval: time.Minute,
		ViewportWidth:   1280,
		ViewportHeight:  720,
	})
	require.NoError(t, manager.Start())
	t.Cleanup(manager.Stop)
	scriptService.SetObserver(manager)

	rewriteCfg := &config.RewriteConfig{
		Model:            rewrite.DefaultModel,
		Timeout:          time.Second,
		FailureThreshold: 3,
		ResetTimeout:     time.Minute,
	}
	var rewriteService *rewrite.Service
	if rewriter != nil {
		rewriteService = rewrite.NewService(rewriter, rewriteCfg)
	} else {
		rewriteService = rewrite.NewServiceFromConfig(rewriteCfg)
	}

	router := gin.New()
	apiGroup := router.Group("/api")
	SetupHealthRoutes(apiGroup, database, manager, rewriteService)
	SetupScriptRoutes(apiGroup, scriptService)
	SetupRewriteRoutes(apiGroup, rewriteService, scriptService)
	SetupSettingsRoutes(apiGroup, settingsService)
	SetupPrompterRoutes(apiGroup, manager, settingsService)

	return &testEnv{
		router:   router,
		database: database,
		scripts:  scriptService,
		settings: settingsService,
		manager:  manager,
	}
}

// do performs a request with an optional JSON body
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// createScript stores a script through the service
func (e *testEnv) createScript(t *testing.T, title, content string) *models.Script {
	t.Helper()
	created, err := e.scripts.Create(context.Background(), title, content)
	require.NoError(t, err)
	return created
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func longContent() string {
	lines := make([]string, 200)
	for i := range lines {
		lines[i] = "Welcome back to the stream, today we are building something new."
	}
	return strings.Join(lines, "\n")
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
