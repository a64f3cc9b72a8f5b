package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/wordclaim/internal/config"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/service/verification"
	"google.golang.org/genai"
)

// languageNames maps tesseract-style language codes to the names used in
// the instruction sent to the model.
var languageNames = map[string]string{
	"por": "Portuguese",
	"eng": "English",
	"spa": "Spanish",
	"fra": "French",
	"deu": "German",
	"ita": "Italian",
}

// mimeTypes maps accepted image extensions to their media type.
var mimeTypes = map[string]string{
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".jfif":  "image/jpeg",
	".pjpeg": "image/jpeg",
	".pjp":   "image/jpeg",
}

// contentGenerator is the subset of the genai client used here.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Recognizer implements verification.Recognizer using Gemini.
type Recognizer struct {
	models contentGenerator
	model  string
	logger *slog.Logger
}

var _ verification.Recognizer = (*Recognizer)(nil)

// NewRecognizer creates a Recognizer from the OCR configuration.
func NewRecognizer(ctx context.Context, cfg config.OCRConfig, logger *slog.Logger) (*Recognizer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.GeminiModel == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return newRecognizer(client.Models, cfg.GeminiModel, logger), nil
}

func newRecognizer(models contentGenerator, model string, logger *slog.Logger) *Recognizer {
	return &Recognizer{
		models: models,
		model:  model,
		logger: logger.With(slog.String("component", "gemini")),
	}
}

// Recognize sends the image at imagePath to the model and returns the text
// it transcribed.
func (r *Recognizer) Recognize(ctx context.Context, imagePath, language string) (string, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(imagePath))
	mimeType, ok := mimeTypes[ext]
	if !ok {
		mimeType = "image/jpeg"
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt(language)},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}}

	var temperature float32
	resp, err := r.models.GenerateContent(ctx, r.model, contents, &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		log.Error("gemini API call failed",
			slog.String("model", r.model),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		log.Warn("unusable gemini response",
			slog.String("model", r.model),
			slog.String("error", err.Error()))
		return "", err
	}

	log.Debug("gemini recognition finished",
		slog.String("model", r.model),
		slog.Int("image_bytes", len(data)),
		slog.Int("text_length", len(text)))
	return text, nil
}

func prompt(language string) string {
	name, ok := languageNames[language]
	if !ok {
		name = language
	}
	var b strings.Builder
	b.WriteString("Transcribe the word written in this image exactly as it appears, ")
	b.WriteString("preserving letter case and accents. ")
	if name != "" {
		fmt.Fprintf(&b, "The text is in %s. ", name)
	}
	b.WriteString("Reply with the transcription only. If there is no legible text, reply with nothing.")
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	switch {
	case resp == nil:
		return "", fmt.Errorf("%w: nil response", ErrInvalidResponse)
	case len(resp.Candidates) == 0:
		return "", fmt.Errorf("%w: no candidates", ErrInvalidResponse)
	case resp.Candidates[0].FinishReason == genai.FinishReasonSafety:
		return "", ErrContentBlocked
	case resp.Candidates[0].Content == nil:
		return "", fmt.Errorf("%w: empty content", ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
