package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/flookyhq/flooky-tools/internal/adapter/observability"
	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/internal/normalize"
	"github.com/flookyhq/flooky-tools/internal/prompt"
	"github.com/flookyhq/flooky-tools/internal/schema"
)

// CVFile is one uploaded CV staged on disk for extraction.
type CVFile struct {
	Name string
	Path string
}

// CVService ranks a batch of CVs against a job role and extracts
// structured contact details for the top candidates.
type CVService struct {
	AI        domain.CompletionClient
	Extractor domain.TextExtractor
	Schema    schema.TaskSchema
	MaxTokens int
}

// NewCVService constructs a CVService.
func NewCVService(ai domain.CompletionClient, ex domain.TextExtractor, sch schema.TaskSchema, maxTokens int) CVService {
	return CVService{AI: ai, Extractor: ex, Schema: sch, MaxTokens: maxTokens}
}

// Rank analyzes the uploaded CVs and returns the top candidates for
// jobRole, best first. CVs whose text cannot be extracted are skipped
// rather than failing the batch.
func (s CVService) Rank(ctx context.Context, jobRole string, files []CVFile, topCount int) domain.ProcessResult {
	start := time.Now()
	if strings.TrimSpace(jobRole) == "" {
		observeTask(domain.TaskCV, observability.OutcomeFailed, start)
		return failure("Job role is required")
	}
	if len(files) == 0 {
		observeTask(domain.TaskCV, observability.OutcomeFailed, start)
		return failure("Please upload at least one CV file")
	}
	if topCount <= 0 {
		topCount = 1
	}
	if topCount > len(files) {
		topCount = len(files)
	}

	var parts []string
	for _, f := range files {
		text, err := s.Extractor.ExtractPath(ctx, f.Name, f.Path)
		if err != nil || strings.TrimSpace(text) == "" {
			slog.Warn("skipping unreadable cv", slog.String("file", f.Name), slog.Any("error", err))
			continue
		}
		parts = append(parts, fmt.Sprintf("CV: %s\n%s", f.Name, text))
	}
	if len(parts) == 0 {
		observeTask(domain.TaskCV, observability.OutcomeFailed, start)
		return failure("No valid CV files found")
	}
	combined := strings.Join(parts, "\n"+prompt.CVSeparator+"\n")

	out, err := s.AI.Complete(ctx, domain.CompletionRequest{
		Messages:  []domain.Message{{Role: domain.RoleUser, Content: prompt.CVRank(jobRole, combined, len(parts), topCount)}},
		MaxTokens: s.MaxTokens,
	})
	if err != nil {
		observeTask(domain.TaskCV, observability.OutcomeFailed, start)
		return upstreamFailure(domain.TaskCV, err)
	}

	doc, outcome := normalizeOutput(domain.TaskCV, s.Schema, out, normalize.Options{})
	observeTask(domain.TaskCV, outcome, start)
	return domain.ProcessResult{Success: true, Data: map[string]any{
		"job_role":        jobRole,
		"top_count":       topCount,
		"files_processed": len(parts),
		"analysis":        doc,
	}}
}
