package script

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/prompter/internal/db"
	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/models"
	"gopkg.in/yaml.v3"
)

const backupVersion = 1

// Backup is the YAML document produced by Export
type Backup struct {
	Version    int              `yaml:"version"`
	ExportedAt time.Time        `yaml:"exported_at"`
	Scripts    []*models.Script `yaml:"scripts"`
}

// Export serializes the whole script library as YAML
func (s *ScriptService) Export(ctx context.Context) ([]byte, error) {
	scripts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(&Backup{
		Version:    backupVersion,
		ExportedAt: nowUTC(),
		Scripts:    scripts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scripts: %w", err)
	}

	logger.Log.Info().
		Int("count", len(scripts)).
		Int("bytes", len(data)).
		Msg("Scripts exported")

	return data, nil
}

// Import restores scripts from a YAML backup. Scripts whose ID already
// exists are overwritten; scripts without an ID get a new one. Either every
// script is stored or none is.
func (s *ScriptService) Import(ctx context.Context, data []byte) (int, error) {
	var backup Backup
	if err := yaml.Unmarshal(data, &backup); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if backup.Version != 0 && backup.Version != backupVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidBackup, backup.Version)
	}

	now := nowUTC()
	for i, script := range backup.Scripts {
		if script == nil {
			return 0, fmt.Errorf("%w: script %d is empty", ErrInvalidBackup, i)
		}
		title, err := normalizeTitle(script.Title)
		if err != nil {
			return 0, fmt.Errorf("failed to import script %d: %w", i, err)
		}
		script.Title = title
		if script.ID == uuid.Nil {
			script.ID = uuid.New()
		}
		if script.CreatedAt.IsZero() {
			script.CreatedAt = now
		}
		script.UpdatedAt = now
	}

	err := s.db.WithTransaction(ctx, func(repos *db.Repositories) error {
		for _, script := range backup.Scripts {
			if err := repos.Scripts.Upsert(ctx, script); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Int("count", len(backup.Scripts)).
			Msg("Failed to import scripts")
		return 0, fmt.Errorf("failed to import scripts: %w", err)
	}

	if s.observer != nil {
		for _, script := range backup.Scripts {
			s.observer.ScriptUpdated(script)
		}
	}

	logger.Log.Info().
		Int("count", len(backup.Scripts)).
		Msg("Scripts imported")

	return len(backup.Scripts), nil
}
