package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WordState represents the assignment state of a word.
type WordState string

// Possible word states. There is no terminal state: verification never
// mutates a word, and both reclamation and reset return it to unassigned.
const (
	WordStateUnassigned WordState = "unassigned"
	WordStateAssigned   WordState = "assigned"
)

// SystemHolder is the holder of every unassigned word. It is reserved and
// can never be used as a participant ID.
const SystemHolder = "SYSTEM"

// MaxParticipantIDLength bounds participant identifiers.
const MaxParticipantIDLength = 128

// Validation errors for Word and participant identifiers.
var (
	ErrEmptyWordID            = errors.New("word ID cannot be empty")
	ErrEmptyWordText          = errors.New("word text cannot be empty")
	ErrNegativeSequence       = errors.New("word sequence cannot be negative")
	ErrInvalidWordState       = errors.New("invalid word state")
	ErrInconsistentAssignment = errors.New("word assignment fields are inconsistent with its state")
	ErrEmptyParticipantID     = errors.New("participant ID cannot be empty")
	ErrReservedParticipantID  = errors.New("participant ID is reserved")
	ErrParticipantIDTooLong   = errors.New("participant ID is too long")
)

// Word is one unit of the distributable pool. ClaimedAt is the single
// timestamp marking when work on the word started; it drives both the
// scheduled reclamation sweep and the check made when reading a claim.
type Word struct {
	ID        uuid.UUID  `json:"id"`
	Text      string     `json:"text"`
	Sequence  int        `json:"sequence"`
	State     WordState  `json:"state"`
	Holder    string     `json:"holder"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewWord creates an unassigned word at the given source position.
func NewWord(text string, sequence int) (*Word, error) {
	word := &Word{
		ID:        uuid.New(),
		Text:      text,
		Sequence:  sequence,
		State:     WordStateUnassigned,
		Holder:    SystemHolder,
		CreatedAt: time.Now().UTC(),
	}

	if err := word.Validate(); err != nil {
		return nil, err
	}

	return word, nil
}

// Validate checks if the Word has valid data and a consistent assignment.
func (w *Word) Validate() error {
	if w.ID == uuid.Nil {
		return ErrEmptyWordID
	}

	if w.Text == "" {
		return ErrEmptyWordText
	}

	if w.Sequence < 0 {
		return ErrNegativeSequence
	}

	switch w.State {
	case WordStateUnassigned:
		if w.Holder != SystemHolder || w.ClaimedAt != nil {
			return ErrInconsistentAssignment
		}
	case WordStateAssigned:
		if w.Holder == SystemHolder || w.Holder == "" || w.ClaimedAt == nil {
			return ErrInconsistentAssignment
		}
	default:
		return ErrInvalidWordState
	}

	return nil
}

// IsAssigned reports whether the word is currently held by a participant.
func (w *Word) IsAssigned() bool {
	return w.State == WordStateAssigned
}

// Expired reports whether an assigned word has been held longer than
// timeout as of now. Unassigned words never expire.
func (w *Word) Expired(now time.Time, timeout time.Duration) bool {
	if !w.IsAssigned() || w.ClaimedAt == nil {
		return false
	}
	return w.ClaimedAt.Before(now.Add(-timeout))
}

// ValidateParticipantID checks an externally supplied participant ID.
func ValidateParticipantID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return ErrEmptyParticipantID
	}
	if trimmed == SystemHolder {
		return ErrReservedParticipantID
	}
	if len(id) > MaxParticipantIDLength {
		return ErrParticipantIDTooLong
	}
	return nil
}
