package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/wordclaim/internal/domain"
	"github.com/phrazzld/wordclaim/internal/service/assignment"
)

// MockAssignmentService implements assignment.Service for testing.
type MockAssignmentService struct {
	ClaimNextWordFn func(ctx context.Context, participantID string) (*assignment.ClaimResult, error)
	CountWordsFn    func(ctx context.Context) (int, error)
	SampleWordsFn   func(ctx context.Context, limit int) ([]*domain.Word, error)
	ResetPoolFn     func(ctx context.Context) (int64, error)

	mu             sync.Mutex
	participantIDs []string
	resetCalls     int
}

var _ assignment.Service = (*MockAssignmentService)(nil)

// ClaimNextWord implements assignment.Service.
func (m *MockAssignmentService) ClaimNextWord(
	ctx context.Context,
	participantID string,
) (*assignment.ClaimResult, error) {
	m.mu.Lock()
	m.participantIDs = append(m.participantIDs, participantID)
	m.mu.Unlock()

	if m.ClaimNextWordFn != nil {
		return m.ClaimNextWordFn(ctx, participantID)
	}
	return &assignment.ClaimResult{}, nil
}

// CountWords implements assignment.Service.
func (m *MockAssignmentService) CountWords(ctx context.Context) (int, error) {
	if m.CountWordsFn != nil {
		return m.CountWordsFn(ctx)
	}
	return 0, nil
}

// SampleWords implements assignment.Service.
func (m *MockAssignmentService) SampleWords(ctx context.Context, limit int) ([]*domain.Word, error) {
	if m.SampleWordsFn != nil {
		return m.SampleWordsFn(ctx, limit)
	}
	return []*domain.Word{}, nil
}

// ResetPool implements assignment.Service.
func (m *MockAssignmentService) ResetPool(ctx context.Context) (int64, error) {
	m.mu.Lock()
	m.resetCalls++
	m.mu.Unlock()

	if m.ResetPoolFn != nil {
		return m.ResetPoolFn(ctx)
	}
	return 0, nil
}

// ClaimedParticipants returns the participant ids passed to ClaimNextWord.
func (m *MockAssignmentService) ClaimedParticipants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.participantIDs...)
}

// ResetCalls returns how many times ResetPool was invoked.
func (m *MockAssignmentService) ResetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetCalls
}
