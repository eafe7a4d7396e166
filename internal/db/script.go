package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/prompter/internal/models"
	"gorm.io/gorm/clause"
)

// ScriptRepository handles database operations for scripts
type ScriptRepository struct {
	db *DB
}

// NewScriptRepository creates a new script repository
func NewScriptRepository(db *DB) *ScriptRepository {
	return &ScriptRepository{db: db}
}

// Create inserts a new script into the database
func (r *ScriptRepository) Create(ctx context.Context, script *models.Script) error {
	result := r.db.WithContext(ctx).Create(script)
	if result.Error != nil {
		return fmt.Errorf("failed to create script: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a script by its UUID
func (r *ScriptRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Script, error) {
	var script models.Script
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&script)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &script, nil
}

// List retrieves all scripts, newest first
func (r *ScriptRepository) List(ctx context.Context) ([]*models.Script, error) {
	var scripts []*models.Script
	result := r.db.WithContext(ctx).Order("created_at DESC").Find(&scripts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", MapGormError(result.Error))
	}
	return scripts, nil
}

// Count returns the total number of scripts
func (r *ScriptRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Script{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count scripts: %w", MapGormError(result.Error))
	}
	return count, nil
}

// Update updates an existing script
// Note: Uses map-based updates so empty content can be saved
func (r *ScriptRepository) Update(ctx context.Context, script *models.Script) error {
	script.UpdatedAt = time.Now().UTC()

	updates := map[string]interface{}{
		"title":      script.Title,
		"content":    script.Content,
		"updated_at": script.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Model(&models.Script{}).Where("id = ?", script.ID.String()).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update script: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a script by its UUID
func (r *ScriptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Script{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete script: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert inserts a script or overwrites the stored one with the same ID.
// Keeps the original created_at.
func (r *ScriptRepository) Upsert(ctx context.Context, script *models.Script) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "content", "updated_at"}),
	}).Create(script)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert script: %w", MapGormError(result.Error))
	}
	return nil
}
