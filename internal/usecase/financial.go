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
	"github.com/flookyhq/flooky-tools/internal/retry"
	"github.com/flookyhq/flooky-tools/internal/schema"
)

// FinancialService turns bank statement uploads plus a savings goal into
// coaching advice. Shares the overload retry policy with contract review.
type FinancialService struct {
	AI        domain.CompletionClient
	Extractor domain.TextExtractor
	Schema    schema.TaskSchema
	Retry     retry.Policy
	MaxTokens int
}

// NewFinancialService constructs a FinancialService.
func NewFinancialService(ai domain.CompletionClient, ex domain.TextExtractor, sch schema.TaskSchema, policy retry.Policy, maxTokens int) FinancialService {
	return FinancialService{AI: ai, Extractor: ex, Schema: sch, Retry: policy, MaxTokens: maxTokens}
}

// Analyze processes the statement file at path against the user's goal.
// goal is required; goalAmount and goalTimeframe may be empty.
func (s FinancialService) Analyze(ctx context.Context, fileName, path, goal, goalAmount, goalTimeframe string) domain.ProcessResult {
	start := time.Now()
	if strings.TrimSpace(goal) == "" {
		observeTask(domain.TaskFinancial, observability.OutcomeFailed, start)
		return failure("Financial goal is required")
	}
	text, err := s.Extractor.ExtractPath(ctx, fileName, path)
	if err != nil || strings.TrimSpace(text) == "" {
		observeTask(domain.TaskFinancial, observability.OutcomeFailed, start)
		return failure("No data could be extracted from the file")
	}
	slog.Info("financial data extracted", slog.Int("chars", len(text)))

	out, err := completeWithRetry(ctx, domain.TaskFinancial, s.AI, s.Retry, domain.CompletionRequest{
		Messages:  []domain.Message{{Role: domain.RoleUser, Content: prompt.Financial(text, goal, goalAmount, goalTimeframe)}},
		MaxTokens: s.MaxTokens,
	})
	if err != nil {
		observeTask(domain.TaskFinancial, observability.OutcomeFailed, start)
		return upstreamFailure(domain.TaskFinancial, err)
	}

	doc, outcome := normalizeOutput(domain.TaskFinancial, s.Schema, out, normalize.Options{})
	observeTask(domain.TaskFinancial, outcome, start)
	return domain.ProcessResult{Success: true, Data: doc}
}
