// Package verification checks an uploaded photo against a claimed word
// using text recognition.
package verification

import (
	"context"
	"errors"
	"io"
)

// Recognizer extracts text from an image file. It is the OCR collaborator;
// implementations live under internal/platform.
type Recognizer interface {
	// Recognize returns the raw text found in the image at imagePath, using
	// language as the recognition hint (for example "por" or "eng").
	Recognize(ctx context.Context, imagePath, language string) (string, error)
}

// Upload is an image supplied by a participant. Filename is the declared
// name; only its extension is used.
type Upload struct {
	Filename string
	Body     io.Reader
}

// VerifyRequest is the input to Verify.
type VerifyRequest struct {
	Upload Upload
	// ClaimedText is the word the participant says the photo shows.
	ClaimedText string
	// ParticipantID, when set, makes the participant's active word the
	// expected text.
	ParticipantID string
}

// Result is the outcome of a verification.
type Result struct {
	Matched   bool
	Extracted string
	Expected  string
}

// Service verifies uploaded photos.
type Service interface {
	// Verify runs recognition on the upload and compares the trimmed text to
	// the expected word, case-sensitively. The uploaded artifact is deleted
	// before Verify returns, whatever the outcome. A mismatch is a normal
	// result, not an error.
	Verify(ctx context.Context, req VerifyRequest) (*Result, error)
}

// Common error types for the verification Service.
var (
	// ErrMissingUpload indicates that no image, or an empty one, was supplied.
	ErrMissingUpload = errors.New("no image uploaded")

	// ErrInvalidExtension indicates an image type outside the allow-list.
	ErrInvalidExtension = errors.New("invalid image extension")

	// ErrUploadTooLarge indicates an image over the configured size limit.
	ErrUploadTooLarge = errors.New("image too large")

	// ErrMissingClaimedText indicates that neither a claimed word nor a
	// participant was supplied.
	ErrMissingClaimedText = errors.New("claimed word is required")

	// ErrInvalidParticipant indicates a participant id that cannot hold words.
	ErrInvalidParticipant = errors.New("invalid participant id")

	// ErrNoActiveAssignment indicates that the participant holds no word, or
	// that their claim has expired.
	ErrNoActiveAssignment = errors.New("participant has no active word")

	// ErrArtifactMissing indicates that the stored image disappeared before
	// recognition could read it.
	ErrArtifactMissing = errors.New("uploaded image is no longer available")

	// ErrRecognitionFailed indicates that the OCR collaborator failed.
	ErrRecognitionFailed = errors.New("text recognition failed")
)

// Metrics receives verification outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveVerification(outcome string)
}

// Verification outcomes reported to Metrics.
const (
	OutcomeMatch    = "match"
	OutcomeMismatch = "mismatch"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)
