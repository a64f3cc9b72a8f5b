package main

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMigrationCommand(t *testing.T) {
	for _, c := range []string{"up", "down", "status", "reset", "version"} {
		assert.True(t, isMigrationCommand(c), c)
	}
	for _, c := range []string{"", "create", "UP", "redo"} {
		assert.False(t, isMigrationCommand(c), c)
	}
}

func TestRunMigrations_RejectsUnknownCommand(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	log, _ := logger.NewTestLogger(t)
	err = runMigrations(db, "create", log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown migration command "create"`)

	// Nothing reached the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlogGooseLogger(t *testing.T) {
	log, buf := logger.NewTestLogger(t)
	gl := &slogGooseLogger{logger: log}

	gl.Printf("OK   %s (%s)\n", "00001_create_words.sql", "12ms")
	gl.Fatalf("migration %d failed", 2)

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "OK   00001_create_words.sql (12ms)", entries[0]["msg"])
	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "migration 2 failed", entries[1]["msg"])
}
