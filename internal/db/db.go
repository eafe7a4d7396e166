package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLite serialises writers, and one prompter service only ever has a
// handful of requests in flight.
const (
	maxOpenConns       = 4
	maxIdleConns       = 2
	connMaxIdleTime    = 10 * time.Minute
	defaultBusyTimeout = 5 * time.Second
)

// DB is the script and settings store
type DB struct {
	*gorm.DB
}

// New opens the SQLite file at dbPath with the default busy timeout.
func New(dbPath string, enableWAL bool) (*DB, error) {
	return open(dbPath, enableWAL, defaultBusyTimeout)
}

// open connects and pings the database. timeout bounds both the ping and
// how long a statement waits on a locked database.
func open(dbPath string, enableWAL bool, timeout time.Duration) (*DB, error) {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d", dbPath, timeout.Milliseconds())
	if enableWAL {
		dsn += "&_journal_mode=WAL"
	}

	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", dbPath, err)
	}

	return &DB{DB: gormDB}, nil
}

// Health pings the database
func (db *DB) Health(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// GetSQLDB returns the underlying sql.DB, which golang-migrate drives directly
func (db *DB) GetSQLDB() (*sql.DB, error) {
	return db.DB.DB()
}
