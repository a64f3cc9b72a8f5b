package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordclaim/internal/domain"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/store"
)

// DefaultLoadBatchSize is the number of rows per INSERT issued by BulkLoad.
// Each row binds three parameters, well under the PostgreSQL limit.
const DefaultLoadBatchSize = 1000

const wordColumns = `id, text, seq, state, holder, claimed_at, created_at`

// PostgresWordStore implements the store.WordStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWordStore struct {
	db        store.DBTX
	logger    *slog.Logger
	batchSize int
}

// NewPostgresWordStore creates a new PostgreSQL implementation of the WordStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresWordStore(db store.DBTX, logger *slog.Logger) *PostgresWordStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWordStore{
		db:        db,
		logger:    logger.With(slog.String("component", "word_store")),
		batchSize: DefaultLoadBatchSize,
	}
}

// Ensure PostgresWordStore implements store.WordStore interface
var _ store.WordStore = (*PostgresWordStore)(nil)

// WithLoadBatchSize returns a copy of the store that inserts size rows per
// statement during BulkLoad. Non-positive sizes keep the current setting.
func (s *PostgresWordStore) WithLoadBatchSize(size int) *PostgresWordStore {
	clone := *s
	if size > 0 {
		clone.batchSize = size
	}
	return &clone
}

// WithTxWordStore implements store.WordStore.WithTxWordStore
func (s *PostgresWordStore) WithTxWordStore(tx *sql.Tx) store.WordStore {
	return &PostgresWordStore{
		db:        tx,
		logger:    s.logger,
		batchSize: s.batchSize,
	}
}

// BulkLoad implements store.WordStore.BulkLoad
func (s *PostgresWordStore) BulkLoad(ctx context.Context, texts []string) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	inserted := 0
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		var (
			placeholders = make([]string, 0, end-start)
			args         = make([]any, 0, (end-start)*3)
		)
		for i := start; i < end; i++ {
			if texts[i] == "" {
				return inserted, fmt.Errorf("%w: %v at sequence %d",
					store.ErrInvalidEntity, domain.ErrEmptyWordText, i)
			}
			n := len(args)
			placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d)", n+1, n+2, n+3))
			args = append(args, uuid.New(), texts[i], i)
		}

		query := `INSERT INTO words (id, text, seq) VALUES ` + strings.Join(placeholders, ", ")
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			log.Error("failed to insert word batch",
				slog.String("error", err.Error()),
				slog.Int("batch_start", start),
				slog.Int("batch_end", end))
			return inserted, store.NewStoreError("bulk load",
				fmt.Sprintf("batch starting at sequence %d", start), MapError(err))
		}
		inserted += end - start
	}

	log.Info("word pool loaded", slog.Int("count", inserted))
	return inserted, nil
}

// Count implements store.WordStore.Count
func (s *PostgresWordStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count words",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return count, nil
}

// Peek implements store.WordStore.Peek
func (s *PostgresWordStore) Peek(ctx context.Context, limit int) ([]*domain.Word, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		return []*domain.Word{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+wordColumns+` FROM words ORDER BY seq ASC LIMIT $1`, limit)
	if err != nil {
		log.Error("failed to query words", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	words := make([]*domain.Word, 0, limit)
	for rows.Next() {
		word, err := scanWord(rows)
		if err != nil {
			log.Error("failed to scan word row", slog.String("error", err.Error()))
			return nil, err
		}
		words = append(words, word)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return words, nil
}

// ResetAll implements store.WordStore.ResetAll
func (s *PostgresWordStore) ResetAll(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE words
		SET state = $1, holder = $2, claimed_at = NULL`,
		domain.WordStateUnassigned, domain.SystemHolder)
	if err != nil {
		log.Error("failed to reset words", slog.String("error", err.Error()))
		return 0, store.NewStoreError("reset", "update failed", MapError(err))
	}

	n, err := rowsAffected(result)
	if err != nil {
		return 0, err
	}

	log.Info("word pool reset", slog.Int64("rows", n))
	return n, nil
}

// HasActiveClaim implements store.WordStore.HasActiveClaim
func (s *PostgresWordStore) HasActiveClaim(ctx context.Context, participantID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM words WHERE holder = $1 AND state = $2)`,
		participantID, domain.WordStateAssigned).Scan(&exists)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to check active claim",
			slog.String("error", err.Error()),
			slog.String("participant_id", participantID))
		return false, MapError(err)
	}
	return exists, nil
}

// FindActive implements store.WordStore.FindActive
func (s *PostgresWordStore) FindActive(ctx context.Context, participantID string) (*domain.Word, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+wordColumns+` FROM words WHERE holder = $1 AND state = $2`,
		participantID, domain.WordStateAssigned)

	word, err := scanWord(row)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrWordNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to find active word",
			slog.String("error", err.Error()),
			slog.String("participant_id", participantID))
		return nil, err
	}
	return word, nil
}

// NextUnassigned implements store.WordStore.NextUnassigned
func (s *PostgresWordStore) NextUnassigned(ctx context.Context) (*domain.Word, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+wordColumns+` FROM words WHERE state = $1 ORDER BY seq ASC LIMIT 1`,
		domain.WordStateUnassigned)

	word, err := scanWord(row)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrWordNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to select next unassigned word",
			slog.String("error", err.Error()))
		return nil, err
	}
	return word, nil
}

// TryClaim implements store.WordStore.TryClaim
//
// The statement re-checks both conditions at write time. Two claimants
// racing for one word serialize on its row lock and the loser sees the
// updated state, so it matches zero rows. One participant racing for two
// words is stopped by the partial unique index on assigned holders.
func (s *PostgresWordStore) TryClaim(
	ctx context.Context,
	id uuid.UUID,
	participantID string,
	claimedAt time.Time,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE words
		SET state = $3, holder = $2, claimed_at = $4
		WHERE id = $1
		  AND state = $5
		  AND NOT EXISTS (
		      SELECT 1 FROM words WHERE holder = $2 AND state = $3
		  )`,
		id, participantID, domain.WordStateAssigned, claimedAt.UTC(), domain.WordStateUnassigned)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrHolderBusy) {
			log.Debug("claim rejected by holder uniqueness",
				slog.String("participant_id", participantID))
			return false, mapped
		}
		log.Error("failed to claim word",
			slog.String("error", err.Error()),
			slog.String("word_id", id.String()),
			slog.String("participant_id", participantID))
		return false, mapped
	}

	n, err := rowsAffected(result)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReclaimStale implements store.WordStore.ReclaimStale
func (s *PostgresWordStore) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE words
		SET state = $1, holder = $2, claimed_at = NULL
		WHERE state = $3 AND claimed_at < $4`,
		domain.WordStateUnassigned, domain.SystemHolder, domain.WordStateAssigned, cutoff.UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to reclaim stale words",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff))
		return 0, store.NewStoreError("reclaim", "sweep failed", MapError(err))
	}
	return rowsAffected(result)
}

// ReclaimStaleFor implements store.WordStore.ReclaimStaleFor
func (s *PostgresWordStore) ReclaimStaleFor(
	ctx context.Context,
	participantID string,
	cutoff time.Time,
) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE words
		SET state = $1, holder = $2, claimed_at = NULL
		WHERE holder = $5 AND state = $3 AND claimed_at < $4`,
		domain.WordStateUnassigned, domain.SystemHolder, domain.WordStateAssigned, cutoff.UTC(),
		participantID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to reclaim stale word for participant",
			slog.String("error", err.Error()),
			slog.String("participant_id", participantID))
		return 0, store.NewStoreError("reclaim", "participant sweep failed", MapError(err))
	}
	return rowsAffected(result)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWord(row rowScanner) (*domain.Word, error) {
	var (
		word      domain.Word
		state     string
		claimedAt sql.NullTime
	)
	err := row.Scan(
		&word.ID,
		&word.Text,
		&word.Sequence,
		&state,
		&word.Holder,
		&claimedAt,
		&word.CreatedAt,
	)
	if err != nil {
		return nil, MapError(err)
	}

	word.State = domain.WordState(state)
	if claimedAt.Valid {
		t := claimedAt.Time
		word.ClaimedAt = &t
	}
	return &word, nil
}
