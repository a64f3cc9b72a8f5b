package testdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/wordclaim/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// Timeout bounds each setup statement.
const Timeout = 5 * time.Second

// gooseTestLogger sends migration output to t.Log so it only shows for
// failing or verbose runs.
type gooseTestLogger struct{ t testing.TB }

func (l gooseTestLogger) Printf(format string, v ...any) {
	l.t.Logf("migrate: %s", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseTestLogger) Fatalf(format string, v ...any) {
	l.t.Fatalf("migrate: %s", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Open returns a migrated database with an empty word pool, closed when the
// test ends. Without a configured database or container support the test
// is skipped.
//
// The pool is shared state: tests that call Open must not use t.Parallel.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	dsn := GetTestDatabaseURL()
	if dsn == "" {
		if !ContainersEnabled() {
			t.Skipf("no database: set %s or %s, or enable %s",
				EnvDatabaseURL, EnvTestDatabaseURL, EnvUseTestContainers)
		}
		var err error
		dsn, err = containerDatabaseURL(context.Background())
		require.NoError(t, err, "start postgres container")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err, "open database")
	// Concurrency tests claim from many goroutines at once.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("close test database: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "ping %s", maskDatabaseURL(dsn))
	require.NoError(t, postgres.Migrate(db, "up", gooseTestLogger{t: t}), "apply migrations")

	_, err = db.ExecContext(ctx, `TRUNCATE TABLE words`)
	require.NoError(t, err, "empty word pool")
	return db
}

// WithTx hands fn a transaction that is rolled back afterwards, so nothing
// fn writes outlives it.
func WithTx(t testing.TB, db *sql.DB, fn func(tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("roll back test transaction: %v", err)
		}
	}()

	fn(tx)
}
