package database

import (
	"context"
	"errors"
	"fmt"

	"chuck-jokes/internal/config"
	"chuck-jokes/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

type ConnectionError struct {
	Host string
	Port int
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to database at %s:%d: %v", e.Host, e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = int32(cfg.MinConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, &ConnectionError{
			Host: poolConfig.ConnConfig.Host,
			Port: int(poolConfig.ConnConfig.Port),
			Err:  err,
		}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ConnectionError{
			Host: poolConfig.ConnConfig.Host,
			Port: int(poolConfig.ConnConfig.Port),
			Err:  err,
		}
	}

	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Migrate applies the embedded Postgres schema.
func (db *DB) Migrate(ctx context.Context) error {
	// shares db.Pool, released when the pool is closed
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	return migrate(ctx, sqlDB, dialectPostgres)
}

const (
	insertJokeSQL = `
		INSERT INTO jokes (external_id, joke, url)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), NULLIF($3, ''))
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id
	`
	existsJokeSQL = "SELECT EXISTS(SELECT 1 FROM jokes WHERE external_id = $1)"
)

// JokeRepository stores jokes in Postgres.
type JokeRepository struct {
	db *DB
}

func NewJokeRepository(db *DB) *JokeRepository {
	return &JokeRepository{db: db}
}

func (r *JokeRepository) Exists(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, existsJokeSQL, externalID).Scan(&exists)
	return exists, err
}

// SaveBatch writes all jokes in one transaction and returns them with their ids.
// If any external id is already taken nothing is written and the error is a
// *ConflictError listing every taken id.
func (r *JokeRepository) SaveBatch(ctx context.Context, jokes []models.StoredJoke) ([]models.StoredJoke, error) {
	if len(jokes) == 0 {
		return nil, nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var conflicts []string
	saved := make([]models.StoredJoke, 0, len(jokes))
	for _, joke := range jokes {
		err := tx.QueryRow(ctx, insertJokeSQL, joke.ExternalID, joke.Text, joke.URL).Scan(&joke.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			conflicts = append(conflicts, joke.ExternalID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to insert joke %s: %w", joke.ExternalID, err)
		}
		saved = append(saved, joke)
	}

	if len(conflicts) > 0 {
		return nil, &ConflictError{ExternalIDs: conflicts}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit jokes: %w", err)
	}

	return saved, nil
}

func (r *JokeRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, "DELETE FROM jokes")
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *JokeRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM jokes").Scan(&count)
	return count, err
}

func (r *JokeRepository) Close() error {
	r.db.Close()
	return nil
}
