package database

import (
	"context"
	"fmt"
	"strings"

	"chuck-jokes/internal/config"
	"chuck-jokes/internal/models"
)

// Repository is the joke table, whichever driver backs it.
type Repository interface {
	Exists(ctx context.Context, externalID string) (bool, error)
	SaveBatch(ctx context.Context, jokes []models.StoredJoke) ([]models.StoredJoke, error)
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// ConflictError reports external ids already taken when a batch was written.
// The batch was rolled back; nothing from it is stored.
type ConflictError struct {
	ExternalIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("jokes already stored: %s", strings.Join(e.ExternalIDs, ", "))
}

var (
	_ Repository = (*JokeRepository)(nil)
	_ Repository = (*SQLiteRepository)(nil)
)

// Open connects to the configured database and applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Repository, error) {
	if cfg.Driver == config.DriverSQLite {
		return NewSQLiteRepository(ctx, cfg.ConnectionString())
	}

	db, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return NewJokeRepository(db), nil
}
