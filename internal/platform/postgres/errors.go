package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/wordclaim/internal/store"
)

// SQLSTATE codes the word store distinguishes.
const (
	codeUniqueViolation  = "23505"
	codeCheckViolation   = "23514"
	codeNotNullViolation = "23502"
	codeStringTooLong    = "22001"
	codeSerialization    = "40001"
	codeDeadlock         = "40P01"
)

// activeHolderIndex is the partial unique index that allows at most one
// assigned word per holder.
const activeHolderIndex = "words_active_holder_idx"

// MapError translates driver errors into store sentinels while keeping the
// original text. Errors it does not recognize are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		if pgErr.ConstraintName == activeHolderIndex {
			return fmt.Errorf("%w: %v", store.ErrHolderBusy, err)
		}
		return fmt.Errorf("%w: %s: %v", store.ErrDuplicate, violated(pgErr), err)
	case codeCheckViolation, codeNotNullViolation, codeStringTooLong:
		return fmt.Errorf("%w: %s: %v", store.ErrInvalidEntity, violated(pgErr), err)
	case codeSerialization, codeDeadlock:
		return fmt.Errorf("%w: %v", store.ErrTransactionFailed, err)
	default:
		return err
	}
}

// violated names the constraint or column a Postgres error refers to.
func violated(pgErr *pgconn.PgError) string {
	switch {
	case pgErr.ConstraintName != "":
		return pgErr.ConstraintName
	case pgErr.ColumnName != "":
		return "column " + pgErr.ColumnName
	default:
		return "sqlstate " + pgErr.Code
	}
}

// rowsAffected returns the row count of an executed statement.
func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
