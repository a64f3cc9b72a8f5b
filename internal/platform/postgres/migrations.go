package postgres

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// MigrationsDir is the directory inside the embedded filesystem holding
// goose migration files.
const MigrationsDir = "migrations"

// MigrationsTable is the goose version table name.
const MigrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ConfigureGoose points goose at the embedded migrations. It mutates goose's
// package-level state and must be called before any goose command.
func ConfigureGoose(logger goose.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName(MigrationsTable)
	if logger != nil {
		goose.SetLogger(logger)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// Migrate runs a goose command (up, down, status, reset, version) against db
// using the embedded migrations.
func Migrate(db *sql.DB, command string, logger goose.Logger) error {
	if err := ConfigureGoose(logger); err != nil {
		return err
	}

	var err error
	switch command {
	case "up":
		err = goose.Up(db, MigrationsDir)
	case "down":
		err = goose.Down(db, MigrationsDir)
	case "reset":
		err = goose.Reset(db, MigrationsDir)
	case "status":
		err = goose.Status(db, MigrationsDir)
	case "version":
		err = goose.Version(db, MigrationsDir)
	default:
		return fmt.Errorf("unknown migration command: %q", command)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}
