// Package settings manages the persisted prompter display and playback preferences.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/stwalsh4118/prompter/internal/db"
	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/models"
)

// ErrInvalidSettings indicates a value outside its allowed range
var ErrInvalidSettings = errors.New("invalid settings")

// IsInvalidSettings checks if the error is a settings validation error
func IsInvalidSettings(err error) bool {
	return errors.Is(err, ErrInvalidSettings)
}

// Patch is a partial settings update. Nil fields are left unchanged.
type Patch struct {
	ScrollSpeed *int  `json:"scroll_speed"`
	FontSize    *int  `json:"font_size"`
	IsMirrored  *bool `json:"is_mirrored"`
	IsDarkMode  *bool `json:"is_dark_mode"`
	PaddingX    *int  `json:"padding_x"`
}

// Apply returns a copy of s with the patch applied
func (p Patch) Apply(s models.Settings) models.Settings {
	if p.ScrollSpeed != nil {
		s.ScrollSpeed = *p.ScrollSpeed
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.IsMirrored != nil {
		s.IsMirrored = *p.IsMirrored
	}
	if p.IsDarkMode != nil {
		s.IsDarkMode = *p.IsDarkMode
	}
	if p.PaddingX != nil {
		s.PaddingX = *p.PaddingX
	}
	return s
}

// SettingsService handles business logic for settings
type SettingsService struct {
	repos *db.Repositories
}

// NewSettingsService creates a new settings service instance
func NewSettingsService(repos *db.Repositories) *SettingsService {
	return &SettingsService{repos: repos}
}

// Get returns the current settings, creating the defaults on first use
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.repos.Settings.Get(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to load settings")
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// Update validates and stores a partial settings change
func (s *SettingsService) Update(ctx context.Context, patch Patch) (*models.Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)
	if err := updated.Validate(); err != nil {
		logger.Log.Warn().
			Err(err).
			Msg("Settings update rejected")
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	if err := s.repos.Settings.Update(ctx, &updated); err != nil {
		if db.IsInvalidInput(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		logger.Log.Error().
			Err(err).
			Msg("Failed to update settings in database")
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	logger.Log.Info().
		Int("scroll_speed", updated.ScrollSpeed).
		Int("font_size", updated.FontSize).
		Int("padding_x", updated.PaddingX).
		Bool("is_mirrored", updated.IsMirrored).
		Bool("is_dark_mode", updated.IsDarkMode).
		Msg("Settings updated successfully")

	return &updated, nil
}
