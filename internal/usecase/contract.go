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

// ContractService performs legal document risk review. Model calls run
// under the overload retry policy because contract analyses are long and
// the most likely to hit capacity limits.
type ContractService struct {
	AI        domain.CompletionClient
	Extractor domain.TextExtractor
	Schema    schema.TaskSchema
	Retry     retry.Policy
	MaxTokens int
}

// NewContractService constructs a ContractService.
func NewContractService(ai domain.CompletionClient, ex domain.TextExtractor, sch schema.TaskSchema, policy retry.Policy, maxTokens int) ContractService {
	return ContractService{AI: ai, Extractor: ex, Schema: sch, Retry: policy, MaxTokens: maxTokens}
}

// Analyze reviews the contract file at path: parties, terms, risk
// assessment with a clamped safety percentage, and recommended changes.
func (s ContractService) Analyze(ctx context.Context, fileName, path string) domain.ProcessResult {
	start := time.Now()
	text, err := s.Extractor.ExtractPath(ctx, fileName, path)
	if err != nil || strings.TrimSpace(text) == "" {
		observeTask(domain.TaskContract, observability.OutcomeFailed, start)
		return failure("No text could be extracted from the file")
	}
	slog.Info("contract text extracted", slog.Int("chars", len(text)))

	out, err := completeWithRetry(ctx, domain.TaskContract, s.AI, s.Retry, domain.CompletionRequest{
		Messages:  []domain.Message{{Role: domain.RoleUser, Content: prompt.Contract(text)}},
		MaxTokens: s.MaxTokens,
	})
	if err != nil {
		observeTask(domain.TaskContract, observability.OutcomeFailed, start)
		return upstreamFailure(domain.TaskContract, err)
	}

	doc, outcome := normalizeOutput(domain.TaskContract, s.Schema, out, normalize.Options{})
	observeTask(domain.TaskContract, outcome, start)
	return domain.ProcessResult{Success: true, Data: doc}
}
