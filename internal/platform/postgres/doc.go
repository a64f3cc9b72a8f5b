// Package postgres implements the word pool on PostgreSQL.
//
// All claim and reclamation rules are enforced by conditional statements and
// by the schema itself (a CHECK on state/holder consistency and a partial
// unique index on assigned holders), so correctness does not depend on any
// in-process locking. The schema ships as embedded goose migrations.
package postgres
