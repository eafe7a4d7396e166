package prompter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/prompter/internal/config"
	"github.com/stwalsh4118/prompter/internal/models"
)

var errScriptMissing = errors.New("script missing")

type stubScripts struct {
	scripts map[uuid.UUID]*models.Script
}

func (s *stubScripts) GetByID(_ context.Context, id uuid.UUID) (*models.Script, error) {
	script, ok := s.scripts[id]
	if !ok {
		return nil, errScriptMissing
	}
	return script, nil
}

type stubSettings struct {
	settings *models.Settings
}

func (s *stubSettings) Get(_ context.Context) (*models.Settings, error) {
	return s.settings, nil
}

func testPrompterConfig() *config.PrompterConfig {
	return &config.PrompterConfig{
		FrameInterval:   2 * time.Millisecond,
		StatsInterval:   10 * time.Millisecond,
		ControlsTimeout: 50 * time.Millisecond,
		IdleTimeout:     time.Hour,
		CleanupInterval: 10 * time.Millisecond,
		ViewportWidth:   1280,
		ViewportHeight:  720,
	}
}

func newTestManager(t *testing.T, cfg *config.PrompterConfig) (*Manager, *models.Script) {
	t.Helper()
	script := models.NewScript("Launch stream", longScript())
	scripts := &stubScripts{scripts: map[uuid.UUID]*models.Script{script.ID: script}}
	m := NewManager(scripts, &stubSettings{settings: models.DefaultSettings()}, cfg)
	require.NoError(t, m.Start())
	t.Cleanup(m.Stop)
	return m, script
}

func TestManager_OpenUsesDefaultsForZeroViewport(t *testing.T) {
	m, script := newTestManager(t, testPrompterConfig())

	session, err := m.Open(context.Background(), script.ID, 0, 0)
	require.NoError(t, err)

	snap, err := session.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 720.0, snap.ClientHeight)
	assert.Equal(t, script.ID.String(), snap.ScriptID)
	assert.Equal(t, models.DefaultScrollSpeed, snap.ScrollSpeed)

	got, err := m.Get(session.ID())
	require.NoError(t, err)
	assert.Same(t, session, got)
}

func TestManager_OpenRejectsNegativeViewport(t *testing.T) {
	m, script := newTestManager(t, testPrompterConfig())

	_, err := m.Open(context.Background(), script.ID, -1, 600)
	assert.ErrorIs(t, err, ErrInvalidViewport)
	assert.Empty(t, m.List())
}

func TestManager_OpenUnknownScript(t *testing.T) {
	m, _ := newTestManager(t, testPrompterConfig())

	_, err := m.Open(context.Background(), uuid.New(), 800, 600)
	assert.ErrorIs(t, err, errScriptMissing)
}

func TestManager_ListAndClose(t *testing.T) {
	m, script := newTestManager(t, testPrompterConfig())

	first, err := m.Open(context.Background(), script.ID, 800, 600)
	require.NoError(t, err)
	second, err := m.Open(context.Background(), script.ID, 800, 600)
	require.NoError(t, err)

	sessions := m.List()
	require.Len(t, sessions, 2)
	assert.ElementsMatch(t, []uuid.UUID{first.ID(), second.ID()}, []uuid.UUID{sessions[0].ID(), sessions[1].ID()})

	require.NoError(t, m.Close(first.ID()))
	assert.ErrorIs(t, m.Close(first.ID()), ErrSessionNotFound)

	_, err = m.Get(first.ID())
	assert.True(t, IsSessionNotFound(err))
	_, err = first.Play()
	assert.ErrorIs(t, err, ErrSessionClosed)

	assert.Len(t, m.List(), 1)
	assert.Equal(t, second.ID(), m.List()[0].ID())
}

func TestManager_ScriptUpdatedPushesContent(t *testing.T) {
	m, script := newTestManager(t, testPrompterConfig())

	session, err := m.Open(context.Background(), script.ID, 800, 600)
	require.NoError(t, err)
	before, err := session.Snapshot()
	require.NoError(t, err)

	updated := *script
	updated.Content = "Just one line now."
	m.ScriptUpdated(&updated)

	after, err := session.Snapshot()
	require.NoError(t, err)
	assert.Less(t, after.MaxScroll, before.MaxScroll)
}

func TestManager_ScriptDeletedClosesSessions(t *testing.T) {
	m, script := newTestManager(t, testPrompterConfig())

	session, err := m.Open(context.Background(), script.ID, 800, 600)
	require.NoError(t, err)

	m.ScriptDeleted(script.ID)

	assert.Empty(t, m.List())
	<-session.Done()
}

func TestManager_IdleCleanup(t *testing.T) {
	cfg := testPrompterConfig()
	cfg.IdleTimeout = 30 * time.Millisecond
	m, script := newTestManager(t, cfg)

	idle, err := m.Open(context.Background(), script.ID, 800, 600)
	require.NoError(t, err)

	watched, err := m.Open(context.Background(), script.ID, 800, 600)
	require.NoError(t, err)
	_, cancel, err := watched.Subscribe()
	require.NoError(t, err)
	defer cancel()

	assert.Eventually(t, func() bool {
		_, err := m.Get(idle.ID())
		return IsSessionNotFound(err)
	}, 2*time.Second, 5*time.Millisecond)

	_, err = m.Get(watched.ID())
	assert.NoError(t, err, "sessions with subscribers are kept")
}

func TestManager_StopClosesSessions(t *testing.T) {
	script := models.NewScript("Launch stream", longScript())
	scripts := &stubScripts{scripts: map[uuid.UUID]*models.Script{script.ID: script}}
	m := NewManager(scripts, &stubSettings{settings: models.DefaultSettings()}, testPrompterConfig())
	require.NoError(t, m.Start())

	session, err := m.Open(context.Background(), script.ID, 800, 600)
	require.NoError(t, err)

	m.Stop()
	m.Stop()

	<-session.Done()
	assert.ErrorIs(t, m.Start(), ErrManagerStopped)
	_, err = m.Open(context.Background(), script.ID, 800, 600)
	assert.ErrorIs(t, err, ErrManagerStopped)
}
