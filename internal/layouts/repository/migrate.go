package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"sync"

	"github.com/pressly/goose/v3"
)

// ============================================================
// Migrations
// ============================================================

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// goose держит диалект и FS в глобальном состоянии
var gooseMu sync.Mutex

// Migrate применяет встроенные миграции для указанного диалекта.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, logger *log.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir := "migrations/sqlite"
	if dialect == DialectPostgres {
		dir = "migrations/postgres"
	}

	goose.SetBaseFS(migrationsFS)
	if logger != nil {
		goose.SetLogger(logger)
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
