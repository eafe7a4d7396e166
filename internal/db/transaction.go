package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// WithTransaction runs fn with repositories bound to a single transaction.
// Returning an error, or panicking, rolls every write back.
func (db *DB) WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(NewRepositories(&DB{DB: tx})); err != nil {
			return fmt.Errorf("transaction error: %w", err)
		}
		return nil
	})
}
