package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/wordclaim/internal/api/shared"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/service/assignment"
)

// Participant-facing messages for claim outcomes that are not errors.
const (
	MsgParticipantRequired = "Participant ID is required"
	MsgAlreadyHoldsWord    = "Participant already holds a word"
	MsgPoolExhausted       = "No more words available"
	MsgResetDone           = "Word pool reset successfully"
	MsgResetFailed         = "Failed to reset word pool"
)

// DefaultPeekLimit is used when the peek request names no limit.
const DefaultPeekLimit = 10

// WordHandler serves the claim, count, peek and reset endpoints.
type WordHandler struct {
	service assignment.Service
	logger  *slog.Logger
}

// NewWordHandler creates a new WordHandler.
func NewWordHandler(service assignment.Service, logger *slog.Logger) *WordHandler {
	if service == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("assignment service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WordHandler{
		service: service,
		logger:  logger.With(slog.String("component", "word_handler")),
	}
}

// Claim handles /claim. The participant id is read from the participantID
// query parameter or form field, with userID accepted as an alias.
func (h *WordHandler) Claim(w http.ResponseWriter, r *http.Request) {
	participantID := shared.FirstValue(r, "participantID", "userID")
	if participantID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, MsgParticipantRequired)
		return
	}

	result, err := h.service.ClaimNextWord(r.Context(), participantID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	switch {
	case result.AlreadyHasWord:
		shared.RespondWithJSON(w, r, http.StatusBadRequest, MessageResponse{Message: MsgAlreadyHoldsWord})
	case result.PoolExhausted():
		shared.RespondWithJSON(w, r, http.StatusNotFound, MessageResponse{Message: MsgPoolExhausted})
	default:
		shared.RespondWithJSON(w, r, http.StatusOK, wordToClaimResponse(result.Word))
	}
}

// Count handles GET /count.
func (h *WordHandler) Count(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.CountWords(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{TotalRecords: total})
}

// Peek handles GET /peek, a diagnostic listing of the first words by
// sequence.
func (h *WordHandler) Peek(w http.ResponseWriter, r *http.Request) {
	req := PeekRequest{Limit: DefaultPeekLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "limit must be a number")
			return
		}
		req.Limit = limit
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	words, err := h.service.SampleWords(r.Context(), req.Limit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := PeekResponse{Words: make([]WordResponse, 0, len(words))}
	for _, word := range words {
		resp.Words = append(resp.Words, wordToResponse(word))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Reset handles POST /reset, returning every word to the pool.
func (h *WordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	n, err := h.service.ResetPool(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, MsgResetFailed, err)
		return
	}

	log.Info("word pool reset over HTTP", slog.Int64("reset", n))
	shared.RespondWithJSON(w, r, http.StatusOK, ResetResponse{Message: MsgResetDone, Reset: n})
}
