package api

import (
	"time"

	"github.com/phrazzld/wordclaim/internal/domain"
)

// MessageResponse carries a human-readable outcome, such as "already holds
// a word" or "pool exhausted", that is not an error in the service sense.
type MessageResponse struct {
	Message string `json:"message"`
}

// ClaimResponse is returned when a participant receives a word.
type ClaimResponse struct {
	Word     string `json:"word"`
	ID       string `json:"id"`
	Sequence int    `json:"sequence"`
}

// VerifyResponse is returned by the verify endpoint for both a match (200)
// and a mismatch (400).
type VerifyResponse struct {
	Message   string `json:"message"`
	Word      string `json:"word"`
	Extracted string `json:"extracted"`
}

// CountResponse reports the total number of words in the pool.
type CountResponse struct {
	TotalRecords int `json:"total_records"`
}

// PeekRequest holds the query parameters of the peek endpoint.
type PeekRequest struct {
	Limit int `query:"limit" validate:"gte=1,lte=100"`
}

// WordResponse is the diagnostic view of a single word.
type WordResponse struct {
	ID        string     `json:"id"`
	Word      string     `json:"word"`
	Sequence  int        `json:"sequence"`
	State     string     `json:"state"`
	Holder    string     `json:"holder"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}

// PeekResponse lists words ordered by sequence.
type PeekResponse struct {
	Words []WordResponse `json:"words"`
}

// ResetResponse reports how many words were returned to the pool.
type ResetResponse struct {
	Message string `json:"message"`
	Reset   int64  `json:"reset"`
}

func wordToClaimResponse(w *domain.Word) ClaimResponse {
	return ClaimResponse{
		Word:     w.Text,
		ID:       w.ID.String(),
		Sequence: w.Sequence,
	}
}

func wordToResponse(w *domain.Word) WordResponse {
	return WordResponse{
		ID:        w.ID.String(),
		Word:      w.Text,
		Sequence:  w.Sequence,
		State:     string(w.State),
		Holder:    w.Holder,
		ClaimedAt: w.ClaimedAt,
	}
}
