package mocks

import (
	"context"
	"os"
	"sync"
)

// RecognizeCall records one Recognize invocation.
type RecognizeCall struct {
	ImagePath string
	Language  string
	// FileExisted reports whether ImagePath existed when Recognize was called.
	FileExisted bool
}

// MockRecognizer implements the verification Recognizer for testing.
type MockRecognizer struct {
	RecognizeFn func(ctx context.Context, imagePath, language string) (string, error)

	// Default response values
	Text string
	Err  error

	mu    sync.Mutex
	calls []RecognizeCall
}

// Recognize returns RecognizeFn's result if set, otherwise Text and Err.
func (m *MockRecognizer) Recognize(ctx context.Context, imagePath, language string) (string, error) {
	_, statErr := os.Stat(imagePath)

	m.mu.Lock()
	m.calls = append(m.calls, RecognizeCall{
		ImagePath:   imagePath,
		Language:    language,
		FileExisted: statErr == nil,
	})
	m.mu.Unlock()

	if m.RecognizeFn != nil {
		return m.RecognizeFn(ctx, imagePath, language)
	}
	return m.Text, m.Err
}

// Calls returns a copy of the recorded invocations.
func (m *MockRecognizer) Calls() []RecognizeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecognizeCall(nil), m.calls...)
}
