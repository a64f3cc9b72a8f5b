package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordclaim/internal/domain"
	"github.com/phrazzld/wordclaim/internal/store"
)

// Operation names accepted by MemoryWordStore.SetError and Calls.
const (
	OpBulkLoad        = "BulkLoad"
	OpCount           = "Count"
	OpPeek            = "Peek"
	OpResetAll        = "ResetAll"
	OpHasActiveClaim  = "HasActiveClaim"
	OpFindActive      = "FindActive"
	OpNextUnassigned  = "NextUnassigned"
	OpTryClaim        = "TryClaim"
	OpReclaimStale    = "ReclaimStale"
	OpReclaimStaleFor = "ReclaimStaleFor"
)

// MemoryWordStore is a mutex-guarded in-memory store.WordStore.
type MemoryWordStore struct {
	mu    sync.Mutex
	words []*domain.Word
	errs  map[string]error
	calls map[string]int

	// BeforeTryClaim, when set, runs at the start of TryClaim without the
	// lock held. Tests use it to interleave a competing claim.
	BeforeTryClaim func(id uuid.UUID, participantID string)
}

var _ store.WordStore = (*MemoryWordStore)(nil)

// NewMemoryWordStore returns a store preloaded with texts in order.
func NewMemoryWordStore(texts ...string) *MemoryWordStore {
	m := &MemoryWordStore{
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
	if len(texts) > 0 {
		if _, err := m.BulkLoad(context.Background(), texts); err != nil {
			// ALLOW-PANIC: test fixture construction with invalid input
			panic(err)
		}
		m.calls = make(map[string]int)
	}
	return m
}

// SetError makes op fail with err until cleared with a nil err.
func (m *MemoryWordStore) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// Calls returns how many times op was invoked.
func (m *MemoryWordStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Snapshot returns copies of every word ordered by sequence.
func (m *MemoryWordStore) Snapshot() []domain.Word {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Word, 0, len(m.words))
	for _, w := range m.words {
		out = append(out, copyWord(w))
	}
	return out
}

// ForceClaim assigns the word at seq to participantID at claimedAt,
// bypassing the claim rules. Tests use it to build stale claims.
func (m *MemoryWordStore) ForceClaim(seq int, participantID string, claimedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.words[seq]
	t := claimedAt.UTC()
	w.State = domain.WordStateAssigned
	w.Holder = participantID
	w.ClaimedAt = &t
}

// begin records a call to op and returns its injected error, if any.
// Callers must hold m.mu.
func (m *MemoryWordStore) begin(op string) error {
	m.calls[op]++
	return m.errs[op]
}

// BulkLoad implements store.WordStore.
func (m *MemoryWordStore) BulkLoad(ctx context.Context, texts []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpBulkLoad); err != nil {
		return 0, err
	}

	start := len(m.words)
	loaded := make([]*domain.Word, 0, len(texts))
	for i, text := range texts {
		w, err := domain.NewWord(text, start+i)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		loaded = append(loaded, w)
	}
	m.words = append(m.words, loaded...)
	return len(loaded), nil
}

// Count implements store.WordStore.
func (m *MemoryWordStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpCount); err != nil {
		return 0, err
	}
	return len(m.words), nil
}

// Peek implements store.WordStore.
func (m *MemoryWordStore) Peek(ctx context.Context, limit int) ([]*domain.Word, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpPeek); err != nil {
		return nil, err
	}
	out := []*domain.Word{}
	for i := 0; i < len(m.words) && i < limit; i++ {
		w := copyWord(m.words[i])
		out = append(out, &w)
	}
	return out, nil
}

// ResetAll implements store.WordStore.
func (m *MemoryWordStore) ResetAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpResetAll); err != nil {
		return 0, err
	}
	for _, w := range m.words {
		release(w)
	}
	return int64(len(m.words)), nil
}

// HasActiveClaim implements store.WordStore.
func (m *MemoryWordStore) HasActiveClaim(ctx context.Context, participantID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpHasActiveClaim); err != nil {
		return false, err
	}
	return m.activeLocked(participantID) != nil, nil
}

// FindActive implements store.WordStore.
func (m *MemoryWordStore) FindActive(ctx context.Context, participantID string) (*domain.Word, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpFindActive); err != nil {
		return nil, err
	}
	w := m.activeLocked(participantID)
	if w == nil {
		return nil, store.ErrWordNotFound
	}
	c := copyWord(w)
	return &c, nil
}

// NextUnassigned implements store.WordStore.
func (m *MemoryWordStore) NextUnassigned(ctx context.Context) (*domain.Word, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpNextUnassigned); err != nil {
		return nil, err
	}
	for _, w := range m.words {
		if !w.IsAssigned() {
			c := copyWord(w)
			return &c, nil
		}
	}
	return nil, store.ErrWordNotFound
}

// TryClaim implements store.WordStore.
func (m *MemoryWordStore) TryClaim(
	ctx context.Context,
	id uuid.UUID,
	participantID string,
	claimedAt time.Time,
) (bool, error) {
	if m.BeforeTryClaim != nil {
		m.BeforeTryClaim(id, participantID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpTryClaim); err != nil {
		return false, err
	}

	if m.activeLocked(participantID) != nil {
		return false, nil
	}
	for _, w := range m.words {
		if w.ID != id {
			continue
		}
		if w.IsAssigned() {
			return false, nil
		}
		t := claimedAt.UTC()
		w.State = domain.WordStateAssigned
		w.Holder = participantID
		w.ClaimedAt = &t
		return true, nil
	}
	return false, nil
}

// ReclaimStale implements store.WordStore.
func (m *MemoryWordStore) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpReclaimStale); err != nil {
		return 0, err
	}
	return m.reclaimLocked("", cutoff), nil
}

// ReclaimStaleFor implements store.WordStore.
func (m *MemoryWordStore) ReclaimStaleFor(
	ctx context.Context,
	participantID string,
	cutoff time.Time,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpReclaimStaleFor); err != nil {
		return 0, err
	}
	return m.reclaimLocked(participantID, cutoff), nil
}

// WithTxWordStore implements store.WordStore. The memory store has no
// transactions, so it returns itself.
func (m *MemoryWordStore) WithTxWordStore(tx *sql.Tx) store.WordStore {
	return m
}

func (m *MemoryWordStore) activeLocked(participantID string) *domain.Word {
	for _, w := range m.words {
		if w.IsAssigned() && w.Holder == participantID {
			return w
		}
	}
	return nil
}

func (m *MemoryWordStore) reclaimLocked(participantID string, cutoff time.Time) int64 {
	var n int64
	for _, w := range m.words {
		if !w.IsAssigned() || w.ClaimedAt == nil || !w.ClaimedAt.Before(cutoff) {
			continue
		}
		if participantID != "" && w.Holder != participantID {
			continue
		}
		release(w)
		n++
	}
	return n
}

func release(w *domain.Word) {
	w.State = domain.WordStateUnassigned
	w.Holder = domain.SystemHolder
	w.ClaimedAt = nil
}

func copyWord(w *domain.Word) domain.Word {
	c := *w
	if w.ClaimedAt != nil {
		t := *w.ClaimedAt
		c.ClaimedAt = &t
	}
	return c
}
