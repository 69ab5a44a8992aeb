package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chuck-jokes/internal/models"

	_ "modernc.org/sqlite"
)

const (
	insertJokeSQLite = `
		INSERT INTO jokes (external_id, joke, url)
		VALUES (NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id
	`
	existsJokeSQLite = "SELECT EXISTS(SELECT 1 FROM jokes WHERE external_id = ?)"
)

// SQLiteRepository stores jokes in a SQLite file. Used for local runs and tests.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens dsn and applies the schema.
func NewSQLiteRepository(ctx context.Context, dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases alive across calls
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{Host: dsn, Err: err}
	}

	if err := migrate(ctx, db, dialectSQLite); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, existsJokeSQLite, externalID).Scan(&exists)
	return exists, err
}

// SaveBatch has the all-or-nothing semantics of JokeRepository.SaveBatch.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, jokes []models.StoredJoke) ([]models.StoredJoke, error) {
	if len(jokes) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var conflicts []string
	saved := make([]models.StoredJoke, 0, len(jokes))
	for _, joke := range jokes {
		err := tx.QueryRowContext(ctx, insertJokeSQLite, joke.ExternalID, joke.Text, joke.URL).Scan(&joke.ID)
		if errors.Is(err, sql.ErrNoRows) {
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

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit jokes: %w", err)
	}

	return saved, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM jokes")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jokes").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
