package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/wordclaim/internal/api/shared"
	"github.com/phrazzld/wordclaim/internal/service/assignment"
	"github.com/phrazzld/wordclaim/internal/service/auth"
	"github.com/phrazzld/wordclaim/internal/service/verification"
	"github.com/phrazzld/wordclaim/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, assignment.ErrInvalidParticipant),
		errors.Is(err, assignment.ErrInvalidLimit),
		errors.Is(err, verification.ErrMissingUpload),
		errors.Is(err, verification.ErrInvalidExtension),
		errors.Is(err, verification.ErrMissingClaimedText),
		errors.Is(err, verification.ErrInvalidParticipant),
		errors.Is(err, verification.ErrNoActiveAssignment),
		errors.Is(err, verification.ErrArtifactMissing),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, verification.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, auth.ErrNotAdmin):
		return http.StatusForbidden

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Transient: the caller can retry
	case errors.Is(err, assignment.ErrClaimContention):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, assignment.ErrInvalidParticipant),
		errors.Is(err, verification.ErrInvalidParticipant):
		return "Invalid participant ID"

	case errors.Is(err, assignment.ErrInvalidLimit):
		return "Invalid limit"

	case errors.Is(err, assignment.ErrClaimContention):
		return "Word pool is busy, try again"

	case errors.Is(err, verification.ErrMissingUpload):
		return "No image file uploaded"

	case errors.Is(err, verification.ErrInvalidExtension):
		return "Invalid file extension. Only PNG, JPG and JPEG files are allowed"

	case errors.Is(err, verification.ErrUploadTooLarge):
		return "Image file is too large"

	case errors.Is(err, verification.ErrMissingClaimedText):
		return "Word is required"

	case errors.Is(err, verification.ErrNoActiveAssignment):
		return "Participant has no active word"

	case errors.Is(err, verification.ErrArtifactMissing):
		return "Image file not found"

	case errors.Is(err, verification.ErrRecognitionFailed):
		return "Failed to process OCR"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrNotAdmin):
		return "Admin role required"

	case errors.Is(err, store.ErrWordNotFound):
		return "Word not found"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// handleError renders err with the mapped status and safe message.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
}
