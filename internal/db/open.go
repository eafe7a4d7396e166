package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stwalsh4118/prompter/internal/config"
	"github.com/stwalsh4118/prompter/internal/logger"
)

// Open creates the database directory if needed, connects, and brings the
// schema up to date
func Open(cfg *config.DatabaseConfig) (*DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	database, err := open(cfg.Path, cfg.EnableWAL, cfg.ConnectionTimeout)
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.GetSQLDB()
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	if err := RunMigrations(sqlDB, cfg.MigrationsPath); err != nil {
		_ = database.Close()
		return nil, err
	}

	version, _, err := MigrationVersion(sqlDB, cfg.MigrationsPath)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	logger.Log.Info().
		Str("path", cfg.Path).
		Bool("wal", cfg.EnableWAL).
		Uint("schema_version", version).
		Msg("Database ready")

	return database, nil
}
