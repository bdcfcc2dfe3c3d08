package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/internal/usecase"
)

func TestFinancial_Analyze_GoalRequired(t *testing.T) {
	t.Parallel()
	ai := &stubAI{}
	svc := usecase.NewFinancialService(ai, stubExtractor{}, schemas[domain.TaskFinancial], fastPolicy(), 4000)
	res := svc.Analyze(context.Background(), "s.csv", "/tmp/s.csv", "  ", "", "")
	require.False(t, res.Success)
	assert.Equal(t, "Financial goal is required", res.Error)
	assert.Zero(t, ai.calls)
}

func TestFinancial_Analyze_Success(t *testing.T) {
	t.Parallel()
	ai := &stubAI{out: `{"financial_overview": {"total_income": 5200, "total_expenses": 4100, "net_savings": 1100}, "personalized_insights": "cut subscriptions"}`}
	svc := usecase.NewFinancialService(ai,
		stubExtractor{texts: map[string]string{"statement.csv": "2026-01-01,salary,5200"}},
		schemas[domain.TaskFinancial], fastPolicy(), 4000)

	res := svc.Analyze(context.Background(), "statement.csv", "/tmp/statement.csv", "save for a car", "12000", "18 months")
	require.True(t, res.Success)
	overview := res.Data["financial_overview"].(map[string]any)
	assert.InDelta(t, 1100.0, overview["net_savings"], 1e-9)
	assert.Equal(t, "cut subscriptions", res.Data["personalized_insights"])

	require.Len(t, ai.reqs, 1)
	p := ai.reqs[0].Messages[0].Content
	assert.Contains(t, p, "User's Financial Goal: save for a car")
	assert.Contains(t, p, `"target_amount": "12000"`)
	assert.Contains(t, p, `"timeframe": "18 months"`)
}

func TestFinancial_Analyze_ExtractionFailure(t *testing.T) {
	t.Parallel()
	svc := usecase.NewFinancialService(&stubAI{}, stubExtractor{}, schemas[domain.TaskFinancial], fastPolicy(), 4000)
	res := svc.Analyze(context.Background(), "x.csv", "/tmp/x.csv", "retire", "", "")
	require.False(t, res.Success)
	assert.Equal(t, "No data could be extracted from the file", res.Error)
}

func TestFinancial_Analyze_RetriesOnOverload(t *testing.T) {
	t.Parallel()
	ai := &stubAI{errs: []error{overloadedErr()}, out: `{"personalized_insights": "ok"}`}
	svc := usecase.NewFinancialService(ai,
		stubExtractor{texts: map[string]string{"s.csv": "rows"}},
		schemas[domain.TaskFinancial], fastPolicy(), 4000)
	res := svc.Analyze(context.Background(), "s.csv", "/tmp/s.csv", "save", "", "")
	require.True(t, res.Success)
	assert.Equal(t, 2, ai.calls)
}

func TestFinancial_Analyze_DegradedKeepsRaw(t *testing.T) {
	t.Parallel()
	raw := "Sorry, I cannot produce JSON for this statement."
	ai := &stubAI{out: raw}
	svc := usecase.NewFinancialService(ai,
		stubExtractor{texts: map[string]string{"s.csv": "rows"}},
		schemas[domain.TaskFinancial], fastPolicy(), 4000)
	res := svc.Analyze(context.Background(), "s.csv", "/tmp/s.csv", "save", "", "")
	require.True(t, res.Success)
	assert.Equal(t, raw, res.Data["raw_response"])
	insights, _ := res.Data["personalized_insights"].(string)
	assert.True(t, strings.Contains(insights, "financial advisor"))
}
