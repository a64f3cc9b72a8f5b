// Package tesseract recognizes text in images by running the tesseract CLI.
package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/service/verification"
)

// DefaultBinary is the executable looked up on PATH when none is configured.
const DefaultBinary = "tesseract"

// ErrBinaryNotFound indicates that the tesseract executable could not be run.
var ErrBinaryNotFound = errors.New("tesseract executable not found")

// Recognizer implements verification.Recognizer with the tesseract CLI.
type Recognizer struct {
	binary string
	logger *slog.Logger
}

var _ verification.Recognizer = (*Recognizer)(nil)

// NewRecognizer returns a Recognizer that runs binary. An empty binary
// selects DefaultBinary.
func NewRecognizer(binary string, logger *slog.Logger) *Recognizer {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{
		binary: binary,
		logger: logger.With(slog.String("component", "tesseract")),
	}
}

// Recognize runs `tesseract <imagePath> stdout -l <language>` and returns
// its standard output. A missing image yields an error wrapping
// fs.ErrNotExist.
func (r *Recognizer) Recognize(ctx context.Context, imagePath, language string) (string, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if _, err := os.Stat(imagePath); err != nil {
		return "", fmt.Errorf("image %s: %w", imagePath, err)
	}

	args := []string{imagePath, "stdout"}
	if language != "" {
		args = append(args, "-l", language)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		var pathErr *fs.PathError
		if errors.Is(err, exec.ErrNotFound) || errors.As(err, &pathErr) {
			return "", fmt.Errorf("%w: %s: %v", ErrBinaryNotFound, r.binary, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		// The image can disappear while tesseract runs; report that the same
		// way as a missing input.
		if _, statErr := os.Stat(imagePath); errors.Is(statErr, fs.ErrNotExist) {
			return "", fmt.Errorf("image %s: %w", imagePath, statErr)
		}
		msg := strings.TrimSpace(stderr.String())
		log.Warn("tesseract failed",
			slog.String("error", err.Error()),
			slog.String("stderr", msg),
			slog.Duration("elapsed", elapsed))
		return "", fmt.Errorf("tesseract: %w: %s", err, msg)
	}

	log.Debug("tesseract finished",
		slog.Int("output_bytes", stdout.Len()),
		slog.Duration("elapsed", elapsed))
	return stdout.String(), nil
}
