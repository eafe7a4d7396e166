// Package script manages the script library: validated CRUD on top of the
// repositories plus YAML backup and restore.
package script

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stwalsh4118/prompter/internal/db"
	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/models"
)

const maxTitleLength = 255

// Observer is told about script edits so open prompter sessions can follow them
type Observer interface {
	ScriptUpdated(script *models.Script)
	ScriptDeleted(id uuid.UUID)
}

// ScriptService handles business logic for script operations
type ScriptService struct {
	db       *db.DB
	repos    *db.Repositories
	observer Observer
}

// NewScriptService creates a new script service instance
func NewScriptService(database *db.DB, repos *db.Repositories) *ScriptService {
	return &ScriptService{
		db:    database,
		repos: repos,
	}
}

// SetObserver registers the receiver of update and delete notifications
func (s *ScriptService) SetObserver(o Observer) {
	s.observer = o
}

// Create creates a new script with validation
func (s *ScriptService) Create(ctx context.Context, title, content string) (*models.Script, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Msg("Script creation failed: invalid title")
		return nil, fmt.Errorf("failed to create script: %w", err)
	}

	script := models.NewScript(title, content)
	if err := s.repos.Scripts.Create(ctx, script); err != nil {
		logger.Log.Error().
			Err(err).
			Str("title", title).
			Msg("Failed to create script in database")
		return nil, fmt.Errorf("failed to create script: %w", err)
	}

	logger.Log.Info().
		Str("script_id", script.ID.String()).
		Str("title", script.Title).
		Int("content_length", len(script.Content)).
		Msg("Script created successfully")

	return script, nil
}

// GetByID retrieves a script by its ID
func (s *ScriptService) GetByID(ctx context.Context, id uuid.UUID) (*models.Script, error) {
	script, err := s.repos.Scripts.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrScriptNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("script_id", id.String()).
			Msg("Failed to get script by ID")
		return nil, fmt.Errorf("failed to get script: %w", err)
	}

	return script, nil
}

// List retrieves all scripts, most recently created first
func (s *ScriptService) List(ctx context.Context) ([]*models.Script, error) {
	scripts, err := s.repos.Scripts.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list scripts")
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}

	logger.Log.Debug().
		Int("count", len(scripts)).
		Msg("Listed scripts")

	return scripts, nil
}

// Update changes the title and/or content of a script. Nil fields are left as is.
func (s *ScriptService) Update(ctx context.Context, id uuid.UUID, title, content *string) (*models.Script, error) {
	script, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if title != nil {
		normalized, err := normalizeTitle(*title)
		if err != nil {
			logger.Log.Warn().
				Err(err).
				Str("script_id", id.String()).
				Msg("Script update failed: invalid title")
			return nil, fmt.Errorf("failed to update script: %w", err)
		}
		script.Title = normalized
	}
	if content != nil {
		script.Content = *content
	}

	if err := s.repos.Scripts.Update(ctx, script); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrScriptNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("script_id", id.String()).
			Msg("Failed to update script in database")
		return nil, fmt.Errorf("failed to update script: %w", err)
	}

	logger.Log.Info().
		Str("script_id", script.ID.String()).
		Str("title", script.Title).
		Msg("Script updated successfully")

	if s.observer != nil {
		s.observer.ScriptUpdated(script)
	}

	return script, nil
}

// Delete deletes a script by its ID
func (s *ScriptService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Scripts.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return ErrScriptNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("script_id", id.String()).
			Msg("Failed to delete script from database")
		return fmt.Errorf("failed to delete script: %w", err)
	}

	logger.Log.Info().
		Str("script_id", id.String()).
		Msg("Script deleted successfully")

	if s.observer != nil {
		s.observer.ScriptDeleted(id)
	}

	return nil
}

// normalizeTitle trims a title and checks its length
func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
