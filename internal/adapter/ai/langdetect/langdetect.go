// Package langdetect detects document language with a small model call.
package langdetect

import (
	"context"
	"strings"

	"log/slog"

	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/internal/prompt"
)

// sampleRunes bounds the document sample sent for detection.
const sampleRunes = 500

// DefaultLanguage is assumed whenever detection cannot complete.
const DefaultLanguage = "English"

// Detector implements domain.LanguageDetector on top of a completion
// client. Detection is best-effort: any upstream failure resolves to
// DefaultLanguage so document analysis never blocks on it.
type Detector struct {
	client domain.CompletionClient
}

// New constructs a Detector.
func New(client domain.CompletionClient) *Detector {
	return &Detector{client: client}
}

// Detect returns the language name of text in English (e.g. "Spanish").
func (d *Detector) Detect(ctx context.Context, text string) (string, error) {
	sample := text
	if runes := []rune(sample); len(runes) > sampleRunes {
		sample = string(runes[:sampleRunes])
	}
	out, err := d.client.Complete(ctx, domain.CompletionRequest{
		Messages:  []domain.Message{{Role: domain.RoleUser, Content: prompt.LanguageDetection(sample)}},
		MaxTokens: 50,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", context.Cause(ctx)
		}
		slog.Warn("language detection failed, assuming default",
			slog.String("default", DefaultLanguage),
			slog.Any("error", err))
		return DefaultLanguage, nil
	}
	lang := strings.TrimSpace(out)
	if lang == "" {
		return DefaultLanguage, nil
	}
	return lang, nil
}
