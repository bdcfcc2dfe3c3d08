package usecase

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"github.com/flookyhq/flooky-tools/internal/adapter/observability"
	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/internal/normalize"
	"github.com/flookyhq/flooky-tools/internal/prompt"
	"github.com/flookyhq/flooky-tools/internal/schema"
)

// BillService analyzes uploaded bills and receipts: OCR/text extraction,
// language detection, one model call, schema normalization.
type BillService struct {
	AI        domain.CompletionClient
	Extractor domain.TextExtractor
	Detector  domain.LanguageDetector
	Schema    schema.TaskSchema
	MaxTokens int
}

// NewBillService constructs a BillService.
func NewBillService(ai domain.CompletionClient, ex domain.TextExtractor, det domain.LanguageDetector, sch schema.TaskSchema, maxTokens int) BillService {
	return BillService{AI: ai, Extractor: ex, Detector: det, Schema: sch, MaxTokens: maxTokens}
}

// Analyze processes the bill file at path and returns an itemized analysis
// in the document's own language.
func (s BillService) Analyze(ctx context.Context, fileName, path string) domain.ProcessResult {
	start := time.Now()
	text, err := s.Extractor.ExtractPath(ctx, fileName, path)
	if err != nil || strings.TrimSpace(text) == "" {
		observeTask(domain.TaskBill, observability.OutcomeFailed, start)
		return failure("No text could be extracted from the file")
	}
	slog.Info("bill text extracted", slog.Int("chars", len(text)))

	lang, err := s.Detector.Detect(ctx, text)
	if err != nil {
		observeTask(domain.TaskBill, observability.OutcomeFailed, start)
		return upstreamFailure(domain.TaskBill, err)
	}
	slog.Info("bill language detected", slog.String("language", lang))

	out, err := s.AI.Complete(ctx, domain.CompletionRequest{
		Messages:  []domain.Message{{Role: domain.RoleUser, Content: prompt.Bill(text, lang)}},
		MaxTokens: s.MaxTokens,
	})
	if err != nil {
		observeTask(domain.TaskBill, observability.OutcomeFailed, start)
		return upstreamFailure(domain.TaskBill, err)
	}

	doc, outcome := normalizeOutput(domain.TaskBill, s.Schema, out, normalize.Options{Spanish: prompt.IsSpanish(lang)})
	doc["language"] = lang
	observeTask(domain.TaskBill, outcome, start)
	return domain.ProcessResult{Success: true, Data: doc}
}
