package db

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/prompter/internal/models"
)

const settingsRowID = 1

// SettingsRepository stores the single row of prompter settings
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row, inserting the defaults the first time.
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	result := r.db.WithContext(ctx).
		Where(&models.Settings{ID: settingsRowID}).
		Attrs(*models.DefaultSettings()).
		FirstOrCreate(&settings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load settings: %w", MapGormError(result.Error))
	}
	return &settings, nil
}

// Update overwrites every column of the settings row. Columns are listed
// explicitly so false and zero values are written.
func (r *SettingsRepository) Update(ctx context.Context, settings *models.Settings) error {
	settings.ID = settingsRowID
	settings.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.Settings{ID: settingsRowID}).
		Select("scroll_speed", "font_size", "is_mirrored", "is_dark_mode", "padding_x", "updated_at").
		Updates(settings)
	if result.Error != nil {
		return fmt.Errorf("failed to update settings: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
