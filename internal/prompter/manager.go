package prompter

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/prompter/internal/config"
	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/models"
)

// ScriptSource loads scripts for new sessions
type ScriptSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Script, error)
}

// SettingsSource loads the persisted display settings
type SettingsSource interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// Manager keeps track of open prompter sessions and closes the ones nobody
// is watching any more.
type Manager struct {
	scripts  ScriptSource
	settings SettingsSource
	config   *config.PrompterConfig

	sessions map[uuid.UUID]*Session
	mu       sync.RWMutex
	stopped  bool

	cleanupTicker *time.Ticker
	stopChan      chan struct{}
	cleanupDone   chan struct{}
}

// NewManager creates a new session manager instance
func NewManager(scripts ScriptSource, settings SettingsSource, cfg *config.PrompterConfig) *Manager {
	return &Manager{
		scripts:     scripts,
		settings:    settings,
		config:      cfg,
		sessions:    make(map[uuid.UUID]*Session),
		stopChan:    make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Start begins the background idle-session cleanup
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrManagerStopped
	}
	if m.cleanupTicker != nil {
		return nil
	}

	m.cleanupTicker = time.NewTicker(m.config.CleanupInterval)
	go m.runCleanupLoop()

	logger.Log.Info().
		Dur("cleanup_interval", m.config.CleanupInterval).
		Dur("idle_timeout", m.config.IdleTimeout).
		Msg("Prompter session manager started")

	return nil
}

// Stop closes every session and shuts the manager down
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	started := m.cleanupTicker != nil
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	logger.Log.Info().Msg("Stopping prompter session manager...")

	close(m.stopChan)
	if started {
		<-m.cleanupDone
		m.cleanupTicker.Stop()
	}

	for _, s := range sessions {
		s.Close()
	}

	logger.Log.Info().
		Int("closed_sessions", len(sessions)).
		Msg("Prompter session manager stopped")
}

// Open starts a session presenting the given script with the persisted
// settings. Zero viewport dimensions fall back to the configured default.
func (m *Manager) Open(ctx context.Context, scriptID uuid.UUID, width, height float64) (*Session, error) {
	if width < 0 || height < 0 {
		return nil, ErrInvalidViewport
	}
	if width == 0 {
		width = float64(m.config.ViewportWidth)
	}
	if height == 0 {
		height = float64(m.config.ViewportHeight)
	}

	m.mu.RLock()
	stopped := m.stopped
	m.mu.RUnlock()
	if stopped {
		return nil, ErrManagerStopped
	}

	script, err := m.scripts.GetByID(ctx, scriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}
	settings, err := m.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	viewport := NewViewport(width, height, settings.FontSize, settings.PaddingX)
	session := NewSession(script.ID, script.Content, viewport, *settings, Options{
		FrameInterval:   m.config.FrameInterval,
		StatsInterval:   m.config.StatsInterval,
		ControlsTimeout: m.config.ControlsTimeout,
	})

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		session.Close()
		return nil, ErrManagerStopped
	}
	m.sessions[session.ID()] = session
	count := len(m.sessions)
	m.mu.Unlock()

	logger.Log.Info().
		Str("session_id", session.ID().String()).
		Str("script_id", script.ID.String()).
		Float64("viewport_width", width).
		Float64("viewport_height", height).
		Int("active_sessions", count).
		Msg("Prompter session registered")

	return session, nil
}

// Get returns an open session by ID
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all open sessions, oldest first
func (m *Manager) List() []*Session {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	slices.SortFunc(sessions, func(a, b *Session) int {
		return a.CreatedAt().Compare(b.CreatedAt())
	})
	return sessions
}

// Close closes a session and forgets it
func (m *Manager) Close(id uuid.UUID) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Close()
	return nil
}

// ScriptUpdated pushes edited script text into every session presenting it
func (m *Manager) ScriptUpdated(script *models.Script) {
	for _, s := range m.sessionsFor(script.ID) {
		if _, err := s.SetContent(script.Content); err != nil && !IsSessionClosed(err) {
			logger.Log.Warn().
				Err(err).
				Str("session_id", s.ID().String()).
				Msg("Failed to push script update to session")
		}
	}
}

// ScriptDeleted closes every session presenting the deleted script
func (m *Manager) ScriptDeleted(scriptID uuid.UUID) {
	for _, s := range m.sessionsFor(scriptID) {
		_ = m.Close(s.ID())
	}
}

func (m *Manager) sessionsFor(scriptID uuid.UUID) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Session
	for _, s := range m.sessions {
		if s.ScriptID() == scriptID {
			matched = append(matched, s)
		}
	}
	return matched
}

// runCleanupLoop runs periodic cleanup of idle sessions
func (m *Manager) runCleanupLoop() {
	defer close(m.cleanupDone)

	logger.Log.Debug().Msg("Prompter cleanup loop started")

	for {
		select {
		case <-m.stopChan:
			logger.Log.Debug().Msg("Prompter cleanup loop stopping")
			return
		case <-m.cleanupTicker.C:
			m.performCleanup()
		}
	}
}

// performCleanup closes sessions with no subscribers that have not been
// touched within the idle timeout
func (m *Manager) performCleanup() {
	now := time.Now()

	closed := 0
	for _, s := range m.List() {
		idle := now.Sub(s.LastAccess())
		if s.SubscriberCount() > 0 || idle < m.config.IdleTimeout {
			continue
		}

		logger.Log.Info().
			Str("session_id", s.ID().String()).
			Dur("idle_duration", idle).
			Msg("Closing idle prompter session")

		if err := m.Close(s.ID()); err == nil {
			closed++
		}
	}

	if closed > 0 {
		logger.Log.Info().
			Int("closed_count", closed).
			Msg("Prompter cleanup cycle completed")
	}
}
