package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by WordStore implementations. Callers match them
// with errors.Is; implementations wrap them with driver detail.
var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write collides with a uniqueness rule,
	// for example a second word at the same sequence position.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when the schema rejects a row. Check the
	// wrapped error for the violated constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a transaction cannot begin or
	// commit, or when Postgres aborts it (serialization failure, deadlock).
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrWordNotFound indicates that no word matched the lookup. For
	// NextUnassigned it means the pool is exhausted.
	ErrWordNotFound = fmt.Errorf("%w: word", ErrNotFound)

	// ErrHolderBusy indicates that a claim was refused because the
	// participant already holds an assigned word.
	ErrHolderBusy = fmt.Errorf("%w: participant already holds a word", ErrDuplicate)
)

// StoreError records which pool-wide write failed. It wraps the mapped
// driver error, so errors.Is still sees the sentinels above.
type StoreError struct {
	Operation string // e.g. "bulk load", "reset", "reclaim"
	Message   string
	Err       error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("word store %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("word store %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError returns a StoreError for operation.
func NewStoreError(operation, message string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
