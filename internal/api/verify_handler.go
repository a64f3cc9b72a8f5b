package api

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/phrazzld/wordclaim/internal/api/shared"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/service/verification"
)

// MsgWordMatches is the message of a successful verification.
const MsgWordMatches = "The word matches"

// multipartOverhead is the allowance for form fields and part headers on top
// of the image itself.
const multipartOverhead = 1 << 20

// VerifyHandler serves the photo verification endpoint.
type VerifyHandler struct {
	service        verification.Service
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewVerifyHandler creates a new VerifyHandler. maxUploadBytes bounds the
// image; zero selects verification.DefaultMaxUploadBytes.
func NewVerifyHandler(service verification.Service, maxUploadBytes int64, logger *slog.Logger) *VerifyHandler {
	if service == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("verification service cannot be nil")
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = verification.DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "verify_handler")),
	}
}

// Verify handles POST /verify. The multipart form carries the photo as
// image (or imagem), the claimed word as word (or texto) and an optional
// participantID.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			handleError(w, r, verification.ErrUploadTooLarge)
			return
		case errors.Is(err, http.ErrNotMultipart):
			handleError(w, r, verification.ErrMissingUpload)
			return
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart form", err)
			return
		}
	}
	defer func() {
		if r.MultipartForm != nil {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				log.Warn("failed to remove multipart temp files", slog.String("error", err.Error()))
			}
		}
	}()

	req := verification.VerifyRequest{
		ClaimedText:   shared.FirstValue(r, "word", "texto"),
		ParticipantID: shared.FirstValue(r, "participantID", "userID"),
	}

	file, header, err := formFile(r, "image", "imagem")
	if err == nil {
		defer func() { _ = file.Close() }()
		req.Upload = verification.Upload{Filename: header.Filename, Body: file}
	} else if !errors.Is(err, http.ErrMissingFile) {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	result, err := h.service.Verify(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if result.Matched {
		shared.RespondWithJSON(w, r, http.StatusOK, VerifyResponse{
			Message:   MsgWordMatches,
			Word:      result.Expected,
			Extracted: result.Extracted,
		})
		return
	}
	shared.RespondWithJSON(w, r, http.StatusBadRequest, VerifyResponse{
		Message:   result.Extracted + " -> " + result.Expected,
		Word:      result.Expected,
		Extracted: result.Extracted,
	})
}

// formFile returns the first file found under any of names.
func formFile(r *http.Request, names ...string) (multipart.File, *multipart.FileHeader, error) {
	for _, name := range names {
		file, header, err := r.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		return file, header, err
	}
	return nil, nil, http.ErrMissingFile
}
