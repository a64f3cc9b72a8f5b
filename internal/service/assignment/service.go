// Package assignment hands out words from the pool to participants, one
// active word per participant.
package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/wordclaim/internal/domain"
)

// ClaimResult is the outcome of a claim request. Exactly one of the
// following holds: AlreadyHasWord is true, Word is set, or neither (the
// pool is exhausted).
type ClaimResult struct {
	AlreadyHasWord bool
	Word           *domain.Word
}

// PoolExhausted reports whether the claim found no unassigned word.
func (r *ClaimResult) PoolExhausted() bool {
	return !r.AlreadyHasWord && r.Word == nil
}

// Service provides the claim, inspection and reset operations on the pool.
type Service interface {
	// ClaimNextWord assigns the unassigned word with the smallest sequence to
	// participantID.
	//
	// Returns:
	//   - ({Word: w}, nil): the participant now holds w
	//   - ({AlreadyHasWord: true}, nil): the participant holds an unexpired word
	//   - ({}, nil): the pool is exhausted
	//   - (nil, ErrInvalidParticipant): empty, reserved or oversized id
	//   - (nil, ErrClaimContention): every attempt lost a race to other claimants
	//   - (nil, *ServiceError): the store failed; nothing was mutated
	//
	// Before claiming, the participant's own expired claim (if any) is
	// returned to the pool, using the same timeout as the scheduled sweep.
	ClaimNextWord(ctx context.Context, participantID string) (*ClaimResult, error)

	// CountWords returns the total number of words in any state.
	CountWords(ctx context.Context) (int, error)

	// SampleWords returns up to limit words ordered by sequence.
	SampleWords(ctx context.Context, limit int) ([]*domain.Word, error)

	// ResetPool returns every word to the unassigned state and reports how
	// many words were reset. Calling it twice yields the same state as once.
	ResetPool(ctx context.Context) (int64, error)
}

// Common error types for the assignment Service.
var (
	// ErrInvalidParticipant indicates a participant id that cannot hold words.
	ErrInvalidParticipant = errors.New("invalid participant id")

	// ErrClaimContention indicates that the claim lost every retry to
	// concurrent claimants. Callers may retry later.
	ErrClaimContention = errors.New("word pool is under contention, try again")

	// ErrInvalidLimit indicates a sample size outside the accepted range.
	ErrInvalidLimit = errors.New("invalid sample limit")
)

// ServiceError wraps store failures with the operation that hit them.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "claim", "reset")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// Metrics receives claim outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveClaim(outcome string, attempts int)
}

// Claim outcomes reported to Metrics.
const (
	OutcomeClaimed       = "claimed"
	OutcomeAlreadyHolds  = "already_holds"
	OutcomePoolExhausted = "pool_exhausted"
	OutcomeContention    = "contention"
	OutcomeError         = "error"
)
