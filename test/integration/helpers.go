//go:build integration
// +build integration

package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/prompter/internal/config"
	"github.com/stwalsh4118/prompter/internal/db"
	"github.com/stwalsh4118/prompter/internal/server"
)

// migrationsPath returns the absolute migrations URL regardless of the
// working directory
func migrationsPath(t *testing.T) string {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	testDir := filepath.Dir(filename)              // test/integration
	rootDir := filepath.Dir(filepath.Dir(testDir)) // module root
	return "file://" + filepath.Join(rootDir, "migrations")
}

// testConfig returns a configuration backed by a temp database
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Database: config.DatabaseConfig{
			Path:           filepath.Join(t.TempDir(), "prompter.db"),
			EnableWAL:      true,
			MigrationsPath: migrationsPath(t),
		},
		Logging: config.LoggingConfig{Level: "error"},
		Prompter: config.PrompterConfig{
			FrameInterval:   16 * time.Millisecond,
			StatsInterval:   100 * time.Millisecond,
			ControlsTimeout: 200 * time.Millisecond,
			IdleTimeout:     time.Minute,
			CleanupInterval: time.Minute,
			ViewportWidth:   1280,
			ViewportHeight:  720,
		},
		Rewrite: config.RewriteConfig{
			Model:            "gemini-2.5-flash",
			Timeout:          time.Second,
			FailureThreshold: 3,
			ResetTimeout:     time.Minute,
		},
	}
}

// startTestServer serves the full router over a real listener
func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := testConfig(t)

	database, err := db.Open(&cfg.Database)
	require.NoError(t, err, "Failed to open database")
	t.Cleanup(func() { _ = database.Close() })

	srv := server.New(cfg, database)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		// Ends open event streams before the listener drains
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
	})
	return ts
}

// doJSON sends a JSON request and decodes a JSON response into out
func doJSON(t *testing.T, method, url string, body, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// sseEvent is one decoded server-sent event
type sseEvent struct {
	Name string
	Data string
}

// readEvents decodes server-sent events from r onto the returned channel
func readEvents(r io.Reader) <-chan sseEvent {
	events := make(chan sseEvent)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(r)
		var current sseEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if current.Name != "" || current.Data != "" {
					events <- current
				}
				current = sseEvent{}
			case strings.HasPrefix(line, "event:"):
				current.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				current.Data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
	}()
	return events
}
