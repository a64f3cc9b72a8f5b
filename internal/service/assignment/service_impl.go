package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/wordclaim/internal/domain"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/store"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultClaimTimeout     = 2 * time.Minute
	DefaultClaimMaxAttempts = 10
	MaxSampleLimit          = 100
)

// Options tunes the service. Zero values select the defaults.
type Options struct {
	// ClaimTimeout is how long a claim stays valid without verification.
	ClaimTimeout time.Duration
	// MaxAttempts bounds the select-then-claim retries of one request.
	MaxAttempts int
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Metrics receives claim outcomes. Optional.
	Metrics Metrics
}

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	words       store.WordStore
	db          *sql.DB
	timeout     time.Duration
	maxAttempts int
	now         func() time.Time
	metrics     Metrics
	logger      *slog.Logger
}

// NewService creates a new assignment Service.
//
// db is used to run ResetPool inside a transaction; it may be nil when the
// store is not backed by database/sql, in which case the reset runs directly
// against words.
func NewService(words store.WordStore, db *sql.DB, opts Options, logger *slog.Logger) Service {
	if words == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("words cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}
	if opts.ClaimTimeout <= 0 {
		opts.ClaimTimeout = DefaultClaimTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultClaimMaxAttempts
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &serviceImpl{
		words:       words,
		db:          db,
		timeout:     opts.ClaimTimeout,
		maxAttempts: opts.MaxAttempts,
		now:         opts.Now,
		metrics:     opts.Metrics,
		logger:      logger.With(slog.String("component", "assignment_service")),
	}
}

// ClaimNextWord implements Service.ClaimNextWord.
func (s *serviceImpl) ClaimNextWord(ctx context.Context, participantID string) (*ClaimResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("participant_id", participantID))

	if err := domain.ValidateParticipantID(participantID); err != nil {
		log.Debug("rejected claim for invalid participant", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrInvalidParticipant, err)
	}

	now := s.now().UTC()

	reclaimed, err := s.words.ReclaimStaleFor(ctx, participantID, now.Add(-s.timeout))
	if err != nil {
		s.observe(OutcomeError, 0)
		return nil, NewServiceError("claim", "failed to expire previous claim", err)
	}
	if reclaimed > 0 {
		log.Info("expired claim returned to pool before new claim",
			slog.Int64("reclaimed", reclaimed))
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		holds, err := s.words.HasActiveClaim(ctx, participantID)
		if err != nil {
			s.observe(OutcomeError, attempt)
			return nil, NewServiceError("claim", "failed to check active claim", err)
		}
		if holds {
			log.Debug("participant already holds a word")
			s.observe(OutcomeAlreadyHolds, attempt)
			return &ClaimResult{AlreadyHasWord: true}, nil
		}

		candidate, err := s.words.NextUnassigned(ctx)
		if err != nil {
			if errors.Is(err, store.ErrWordNotFound) {
				log.Info("word pool exhausted")
				s.observe(OutcomePoolExhausted, attempt)
				return &ClaimResult{}, nil
			}
			s.observe(OutcomeError, attempt)
			return nil, NewServiceError("claim", "failed to select next word", err)
		}

		won, err := s.words.TryClaim(ctx, candidate.ID, participantID, now)
		if err != nil {
			if errors.Is(err, store.ErrHolderBusy) {
				log.Debug("concurrent claim by same participant won")
				s.observe(OutcomeAlreadyHolds, attempt)
				return &ClaimResult{AlreadyHasWord: true}, nil
			}
			s.observe(OutcomeError, attempt)
			return nil, NewServiceError("claim", "failed to claim word", err)
		}
		if !won {
			log.Debug("lost claim race, retrying",
				slog.String("word_id", candidate.ID.String()),
				slog.Int("attempt", attempt))
			continue
		}

		claimedAt := now
		candidate.State = domain.WordStateAssigned
		candidate.Holder = participantID
		candidate.ClaimedAt = &claimedAt

		log.Info("word claimed",
			slog.String("word_id", candidate.ID.String()),
			slog.Int("sequence", candidate.Sequence),
			slog.Int("attempt", attempt))
		s.observe(OutcomeClaimed, attempt)
		return &ClaimResult{Word: candidate}, nil
	}

	log.Warn("claim abandoned after repeated races", slog.Int("attempts", s.maxAttempts))
	s.observe(OutcomeContention, s.maxAttempts)
	return nil, ErrClaimContention
}

// CountWords implements Service.CountWords.
func (s *serviceImpl) CountWords(ctx context.Context) (int, error) {
	n, err := s.words.Count(ctx)
	if err != nil {
		return 0, NewServiceError("count", "failed to count words", err)
	}
	return n, nil
}

// SampleWords implements Service.SampleWords.
func (s *serviceImpl) SampleWords(ctx context.Context, limit int) ([]*domain.Word, error) {
	if limit < 1 || limit > MaxSampleLimit {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidLimit, MaxSampleLimit)
	}

	words, err := s.words.Peek(ctx, limit)
	if err != nil {
		return nil, NewServiceError("sample", "failed to read words", err)
	}
	return words, nil
}

// ResetPool implements Service.ResetPool.
func (s *serviceImpl) ResetPool(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var reset int64
	err := s.runInTransaction(ctx, func(ctx context.Context, words store.WordStore) error {
		n, err := words.ResetAll(ctx)
		if err != nil {
			return err
		}
		reset = n
		return nil
	})
	if err != nil {
		log.Error("failed to reset word pool", slog.String("error", err.Error()))
		return 0, NewServiceError("reset", "failed to reset word pool", err)
	}

	log.Info("word pool reset", slog.Int64("words", reset))
	return reset, nil
}

func (s *serviceImpl) runInTransaction(
	ctx context.Context,
	fn func(context.Context, store.WordStore) error,
) error {
	if s.db == nil {
		return fn(ctx, s.words)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.words.WithTxWordStore(tx))
	})
}

func (s *serviceImpl) observe(outcome string, attempts int) {
	if s.metrics != nil {
		s.metrics.ObserveClaim(outcome, attempts)
	}
}
