package verification

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/phrazzld/wordclaim/internal/domain"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/store"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultLanguage       = "por"
	DefaultClaimTimeout   = 2 * time.Minute
	DefaultMaxUploadBytes = 10 << 20
)

// Options configures the service. Zero values select the defaults.
type Options struct {
	// UploadDir is where artifacts live while being recognized. Required.
	UploadDir string
	// Language is the recognition hint passed to the Recognizer.
	Language string
	// ClaimTimeout must match the claim path and the sweep.
	ClaimTimeout time.Duration
	// MaxUploadBytes bounds a single image.
	MaxUploadBytes int64
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Metrics receives outcomes. Optional.
	Metrics Metrics
}

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	recognizer Recognizer
	words      store.WordStore
	opts       Options
	logger     *slog.Logger
}

// NewService creates a new verification Service.
func NewService(
	recognizer Recognizer,
	words store.WordStore,
	opts Options,
	logger *slog.Logger,
) Service {
	if recognizer == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("recognizer cannot be nil")
	}
	if words == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("words cannot be nil")
	}
	if opts.UploadDir == "" {
		// ALLOW-PANIC: Constructor enforcing required configuration
		panic("upload dir cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.ClaimTimeout <= 0 {
		opts.ClaimTimeout = DefaultClaimTimeout
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &serviceImpl{
		recognizer: recognizer,
		words:      words,
		opts:       opts,
		logger:     logger.With(slog.String("component", "verification_service")),
	}
}

// Verify implements Service.Verify.
func (s *serviceImpl) Verify(ctx context.Context, req VerifyRequest) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.verify(ctx, log, req)
	switch {
	case err == nil && result.Matched:
		s.observe(OutcomeMatch)
	case err == nil:
		s.observe(OutcomeMismatch)
	case IsRejection(err):
		s.observe(OutcomeRejected)
	default:
		s.observe(OutcomeError)
	}
	return result, err
}

// IsRejection reports whether err is a problem with the request rather
// than a failure of the service or its collaborators.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrMissingUpload,
		ErrInvalidExtension,
		ErrUploadTooLarge,
		ErrMissingClaimedText,
		ErrInvalidParticipant,
		ErrNoActiveAssignment,
		ErrArtifactMissing,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *serviceImpl) verify(ctx context.Context, log *slog.Logger, req VerifyRequest) (*Result, error) {
	if req.Upload.Body == nil {
		return nil, ErrMissingUpload
	}
	ext, err := NormalizedExtension(req.Upload.Filename)
	if err != nil {
		log.Debug("rejected upload", slog.String("error", err.Error()))
		return nil, err
	}

	claimed := strings.TrimSpace(req.ClaimedText)
	expected := claimed
	if req.ParticipantID != "" {
		word, err := s.activeWord(ctx, req.ParticipantID)
		if err != nil {
			return nil, err
		}
		expected = word.Text
	} else if claimed == "" {
		return nil, ErrMissingClaimedText
	}

	art, err := acquireArtifact(s.opts.UploadDir, ext, req.Upload.Body, s.opts.MaxUploadBytes)
	if err != nil {
		if !IsRejection(err) {
			log.Error("failed to store upload", slog.String("error", err.Error()))
		}
		return nil, err
	}
	defer func() {
		if err := art.release(); err != nil {
			log.Error("failed to delete uploaded image",
				slog.String("path", art.path),
				slog.String("error", err.Error()))
		}
	}()

	extracted, err := s.recognize(ctx, art.path)
	if err != nil {
		if errors.Is(err, ErrArtifactMissing) {
			log.Warn("uploaded image vanished before recognition", slog.String("path", art.path))
		} else {
			log.Error("text recognition failed",
				slog.String("error", err.Error()),
				slog.String("path", art.path))
		}
		return nil, err
	}

	result := &Result{
		Extracted: extracted,
		Expected:  expected,
		Matched:   extracted == expected && (claimed == "" || claimed == expected),
	}

	log.Info("verification completed",
		slog.Bool("matched", result.Matched),
		slog.String("expected", expected),
		slog.String("extracted", extracted),
		slog.Int64("image_bytes", art.size))
	return result, nil
}

// activeWord returns participantID's unexpired word.
func (s *serviceImpl) activeWord(ctx context.Context, participantID string) (*domain.Word, error) {
	if err := domain.ValidateParticipantID(participantID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParticipant, err)
	}

	word, err := s.words.FindActive(ctx, participantID)
	if err != nil {
		if errors.Is(err, store.ErrWordNotFound) {
			return nil, ErrNoActiveAssignment
		}
		return nil, fmt.Errorf("failed to look up active word: %w", err)
	}
	if word.Expired(s.opts.Now(), s.opts.ClaimTimeout) {
		return nil, fmt.Errorf("%w: claim expired", ErrNoActiveAssignment)
	}
	return word, nil
}

// recognize runs the recognizer on path and returns the trimmed text.
func (s *serviceImpl) recognize(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrArtifactMissing
		}
		return "", fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	text, err := s.recognizer.Recognize(ctx, path, s.opts.Language)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %v", ErrArtifactMissing, err)
		}
		return "", fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}
	return strings.TrimSpace(text), nil
}

func (s *serviceImpl) observe(outcome string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveVerification(outcome)
	}
}
