// Package usecase contains the analysis pipelines behind each tool.
//
// Every pipeline resolves to a domain.ProcessResult envelope: extraction or
// upstream failures produce Success=false with a user-facing message, while
// unparseable model output degrades to the schema fallback and still counts
// as success. Handlers never receive a panic or a malformed document.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/flookyhq/flooky-tools/internal/adapter/observability"
	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/internal/normalize"
	"github.com/flookyhq/flooky-tools/internal/retry"
	"github.com/flookyhq/flooky-tools/internal/schema"
)

// overloadedMsg is returned when retries against an overloaded upstream
// are exhausted.
const overloadedMsg = "API is currently overloaded. Please try again in a few minutes."

func failure(msg string) domain.ProcessResult {
	return domain.ProcessResult{Success: false, Error: msg}
}

func failuref(format string, args ...any) domain.ProcessResult {
	return failure(fmt.Sprintf(format, args...))
}

// upstreamFailure renders err as a pipeline failure, normalizing the
// overload case to a stable message.
func upstreamFailure(task string, err error) domain.ProcessResult {
	if errors.Is(err, domain.ErrUpstreamOverloaded) {
		return failuref("Failed to analyze %s: %s", task, overloadedMsg)
	}
	return failuref("Failed to analyze %s: %v", task, err)
}

// normalizeOutput runs the task schema over raw model output and records
// the outcome. The degraded path still yields a usable document.
func normalizeOutput(task string, sch schema.TaskSchema, raw string, opts normalize.Options) (map[string]any, string) {
	doc, ok := normalize.Normalize(sch, raw, opts)
	if !ok {
		observability.RecordFallback(task)
		slog.Warn("model output not parseable, serving schema fallback",
			slog.String("task", task),
			slog.Int("raw_len", len(raw)))
		return doc, observability.OutcomeDegraded
	}
	return doc, observability.OutcomeOK
}

// completeWithRetry runs one model call under the overload policy,
// counting scheduled retries for the task.
func completeWithRetry(ctx context.Context, task string, ai domain.CompletionClient, policy retry.Policy, req domain.CompletionRequest) (string, error) {
	base := policy.Notify
	policy.Notify = func(err error, delay time.Duration) {
		observability.RecordRetry(task)
		slog.Warn("model call overloaded, retrying",
			slog.String("task", task),
			slog.Duration("delay", delay),
			slog.Any("error", err))
		if base != nil {
			base(err, delay)
		}
	}
	var out string
	err := policy.Do(ctx, func() error {
		var cerr error
		out, cerr = ai.Complete(ctx, req)
		return cerr
	})
	return out, err
}

func observeTask(task, outcome string, start time.Time) {
	observability.ObserveTask(task, outcome, time.Since(start))
}
