package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordclaim/internal/domain"
)

// WordStore defines the interface for word pool persistence.
//
// Every mutation is a single conditional statement against the durable
// store: a claim only touches a row that is still unassigned, reclamation
// only touches rows that are still assigned. Implementations must not cache
// word state between calls.
type WordStore interface {
	// BulkLoad inserts one unassigned word per text, using the slice index
	// as the sequence position. It is not re-entrant safe: callers check
	// Count first, and should run it inside RunInTransaction so a failed
	// load leaves the pool empty.
	BulkLoad(ctx context.Context, texts []string) (int, error)

	// Count returns the total number of words in any state.
	Count(ctx context.Context) (int, error)

	// Peek returns up to limit words ordered by sequence.
	Peek(ctx context.Context, limit int) ([]*domain.Word, error)

	// ResetAll returns every word to the unassigned state and reports how
	// many rows were touched.
	ResetAll(ctx context.Context) (int64, error)

	// HasActiveClaim reports whether participantID holds an assigned word.
	HasActiveClaim(ctx context.Context, participantID string) (bool, error)

	// FindActive returns the word currently assigned to participantID.
	// Returns ErrWordNotFound if the participant holds nothing.
	FindActive(ctx context.Context, participantID string) (*domain.Word, error)

	// NextUnassigned returns the unassigned word with the smallest sequence.
	// Returns ErrWordNotFound when the pool is exhausted. The result is
	// only a candidate; TryClaim decides who wins it.
	NextUnassigned(ctx context.Context) (*domain.Word, error)

	// TryClaim assigns the word to participantID only if the word is still
	// unassigned and the participant holds no other word. It returns false
	// when the conditional update matched no row, and ErrHolderBusy when the
	// store's holder uniqueness rejected the write.
	TryClaim(ctx context.Context, id uuid.UUID, participantID string, claimedAt time.Time) (bool, error)

	// ReclaimStale returns every assigned word claimed before cutoff to the
	// pool in one statement and reports how many were reclaimed.
	ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error)

	// ReclaimStaleFor applies the ReclaimStale rule to participantID only.
	ReclaimStaleFor(ctx context.Context, participantID string, cutoff time.Time) (int64, error)

	// WithTxWordStore returns a WordStore bound to tx.
	//
	// Example usage:
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       _, err := wordStore.WithTxWordStore(tx).BulkLoad(ctx, texts)
	//       return err
	//   })
	WithTxWordStore(tx *sql.Tx) WordStore
}

// DBTX is the subset of *sql.DB and *sql.Tx the word store needs, so one
// implementation serves both pooled and transactional use.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
