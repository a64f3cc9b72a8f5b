package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
)

// TraceIDLength is the number of random bytes in a generated trace ID.
const TraceIDLength = 16

// SetTraceID stores a fresh trace ID in ctx.
func SetTraceID(ctx context.Context) context.Context {
	return logger.WithTraceID(ctx, generateTraceID())
}

// AdoptTraceID stores upstream in ctx if it looks like one of our own IDs,
// so a proxy or client can correlate its logs with ours. Anything else gets
// a fresh ID; upstream values end up in logs and must not be free text.
func AdoptTraceID(ctx context.Context, upstream string) context.Context {
	if !ValidTraceID(upstream) {
		return SetTraceID(ctx)
	}
	return logger.WithTraceID(ctx, strings.ToLower(upstream))
}

// ValidTraceID reports whether id is 32 hex characters.
func ValidTraceID(id string) bool {
	if len(id) != 2*TraceIDLength {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

// GetTraceID returns the trace ID stored in ctx, or "".
func GetTraceID(ctx context.Context) string {
	return logger.TraceID(ctx)
}

// generateTraceID falls back to a dashless UUID if crypto/rand fails.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		slog.Error("crypto/rand failed, using uuid trace id", slog.String("error", err.Error()))
		return fallbackTraceID()
	}
	return hex.EncodeToString(b)
}

func fallbackTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
