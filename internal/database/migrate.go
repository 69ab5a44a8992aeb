package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"chuck-jokes/pkg/logger"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite3"

	migrationsTable = "schema_migrations"
)

// goose keeps its settings in package globals
var gooseMu sync.Mutex

func migrate(ctx context.Context, db *sql.DB, dialect string) error {
	dir := "migrations/postgres"
	if dialect == dialectSQLite {
		dir = "migrations/sqlite"
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})
	goose.SetTableName(migrationsTable)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...), logger.String("component", "goose"))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	panic(fmt.Sprintf(format, v...))
}
