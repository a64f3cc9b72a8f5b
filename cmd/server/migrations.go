package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/wordclaim/internal/platform/postgres"
)

// migrationCommands lists the goose commands exposed by the migrate command.
var migrationCommands = []string{"up", "down", "status", "reset", "version"}

// slogGooseLogger adapts goose's Printf/Fatalf logging to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf implements goose.Logger. The failure is logged and returned by
// the goose call, so the process is not terminated here.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func isMigrationCommand(command string) bool {
	for _, c := range migrationCommands {
		if c == command {
			return true
		}
	}
	return false
}

// runMigrations applies command against db with the embedded migrations.
func runMigrations(db *sql.DB, command string, logger *slog.Logger) error {
	if !isMigrationCommand(command) {
		return fmt.Errorf("unknown migration command %q (want one of %s)",
			command, strings.Join(migrationCommands, ", "))
	}

	log := logger.With(slog.String("component", "migrations"))
	log.Info("running migrations", slog.String("command", command))

	if err := postgres.Migrate(db, command, &slogGooseLogger{logger: log}); err != nil {
		return err
	}
	log.Info("migrations finished", slog.String("command", command))
	return nil
}
