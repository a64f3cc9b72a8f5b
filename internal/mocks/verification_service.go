package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/phrazzld/wordclaim/internal/service/verification"
)

// VerifyCall records one Verify invocation. The upload body is drained so
// tests can assert on what was sent.
type VerifyCall struct {
	Filename      string
	Body          []byte
	ClaimedText   string
	ParticipantID string
}

// MockVerificationService implements verification.Service for testing.
type MockVerificationService struct {
	VerifyFn func(ctx context.Context, req verification.VerifyRequest) (*verification.Result, error)

	mu    sync.Mutex
	calls []VerifyCall
}

var _ verification.Service = (*MockVerificationService)(nil)

// Verify implements verification.Service.
func (m *MockVerificationService) Verify(
	ctx context.Context,
	req verification.VerifyRequest,
) (*verification.Result, error) {
	call := VerifyCall{
		Filename:      req.Upload.Filename,
		ClaimedText:   req.ClaimedText,
		ParticipantID: req.ParticipantID,
	}
	if req.Upload.Body != nil {
		body, err := io.ReadAll(req.Upload.Body)
		if err != nil {
			return nil, err
		}
		call.Body = body
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, req)
	}
	return &verification.Result{
		Matched:   true,
		Extracted: req.ClaimedText,
		Expected:  req.ClaimedText,
	}, nil
}

// Calls returns a copy of the recorded invocations.
func (m *MockVerificationService) Calls() []VerifyCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]VerifyCall(nil), m.calls...)
}
