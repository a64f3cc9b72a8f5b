package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/wordclaim/internal/config"
	"github.com/phrazzld/wordclaim/internal/platform/gemini"
	"github.com/phrazzld/wordclaim/internal/platform/tesseract"
	"github.com/phrazzld/wordclaim/internal/service/verification"
)

// OCR providers accepted in ocr.provider.
const (
	providerTesseract = "tesseract"
	providerGemini    = "gemini"
)

// newRecognizer builds the OCR collaborator named by cfg.Provider.
func newRecognizer(ctx context.Context, cfg config.OCRConfig, logger *slog.Logger) (verification.Recognizer, error) {
	switch cfg.Provider {
	case providerTesseract, "":
		binary := cfg.TesseractPath
		if binary == "" {
			binary = tesseract.DefaultBinary
		}
		return tesseract.NewRecognizer(binary, logger), nil
	case providerGemini:
		r, err := gemini.NewRecognizer(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini recognizer: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", cfg.Provider)
	}
}
