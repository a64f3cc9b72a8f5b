// Package testdb provides PostgreSQL connections for integration tests.
//
// A database is taken from DATABASE_URL or WORDCLAIM_TEST_DB_URL. When
// neither is set and WORDCLAIM_TEST_CONTAINERS=1, a throwaway postgres
// container is started once per test binary. Otherwise tests that ask for
// a database are skipped. Every connection handed out has the embedded
// migrations applied.
package testdb
