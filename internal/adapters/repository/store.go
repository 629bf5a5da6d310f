// Package repository persists user stats records.
package repository

import (
	"context"

	"github.com/okian/compass-wrapped/internal/domain/model"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Store is an append-only collection of user stats records.
type Store interface {
	// Insert persists stats, assigning its ID and CreatedAt.
	Insert(ctx context.Context, stats *model.UserStats) error

	// Latest returns the most recently created record for userID.
	// Returns ErrNotFound if there is none.
	Latest(ctx context.Context, userID string) (model.UserStats, error)

	// ListByPeriod returns every record with the given period type,
	// oldest first.
	ListByPeriod(ctx context.Context, periodType string) ([]model.UserStats, error)

	// Close releases the underlying connection.
	Close() error
}
