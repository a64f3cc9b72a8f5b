package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuard(t *testing.T) {
	start := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	duration := 12 * time.Hour

	tests := []struct {
		name          string
		elapsed       time.Duration
		wantOpen      bool
		wantRemaining time.Duration
	}{
		{name: "at start", elapsed: 0, wantOpen: true, wantRemaining: duration},
		{name: "midway", elapsed: 5 * time.Hour, wantOpen: true, wantRemaining: 7 * time.Hour},
		{name: "closing instant", elapsed: duration, wantOpen: true, wantRemaining: 0},
		{name: "just after", elapsed: duration + time.Nanosecond, wantOpen: false, wantRemaining: 0},
		{name: "long after", elapsed: 48 * time.Hour, wantOpen: false, wantRemaining: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(start, duration, func() time.Time { return start.Add(tt.elapsed) })
			assert.Equal(t, tt.wantOpen, g.IsOpen())
			assert.Equal(t, tt.wantRemaining, g.Remaining())
			assert.Equal(t, start.Add(duration), g.ClosesAt())
			assert.Equal(t, start, g.StartedAt())
		})
	}
}

func TestGuard_DefaultClock(t *testing.T) {
	g := NewGuard(time.Now(), time.Hour, nil)
	assert.True(t, g.IsOpen())

	closed := NewGuard(time.Now().Add(-2*time.Hour), time.Hour, nil)
	assert.False(t, closed.IsOpen())
}
