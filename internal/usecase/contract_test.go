package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/internal/usecase"
)

func TestContract_Analyze_Success(t *testing.T) {
	t.Parallel()
	ai := &stubAI{out: `Here is my analysis:
{"contract_title": "Lease Agreement", "duration": "2 years", "risk_assessment": {"safety_percentage": 130, "risk_level": "Low", "scam_likelihood": "Very Low", "explanation": "standard lease"}}`}
	svc := usecase.NewContractService(ai,
		stubExtractor{texts: map[string]string{"lease.pdf": "LEASE AGREEMENT between A and B"}},
		schemas[domain.TaskContract], fastPolicy(), 4000)

	res := svc.Analyze(context.Background(), "lease.pdf", "/tmp/lease.pdf")
	require.True(t, res.Success)
	assert.Equal(t, "Lease Agreement", res.Data["contract_title"])
	risk := res.Data["risk_assessment"].(map[string]any)
	assert.Equal(t, 100, risk["safety_percentage"])
	assert.Equal(t, "Low", risk["risk_level"])
}

func TestContract_Analyze_RecoversFromOverload(t *testing.T) {
	t.Parallel()
	ai := &stubAI{
		errs: []error{overloadedErr(), overloadedErr()},
		out:  `{"contract_title": "NDA"}`,
	}
	svc := usecase.NewContractService(ai,
		stubExtractor{texts: map[string]string{"nda.pdf": "NON-DISCLOSURE AGREEMENT"}},
		schemas[domain.TaskContract], fastPolicy(), 4000)

	res := svc.Analyze(context.Background(), "nda.pdf", "/tmp/nda.pdf")
	require.True(t, res.Success)
	assert.Equal(t, 3, ai.calls)
	assert.Equal(t, "NDA", res.Data["contract_title"])
}

func TestContract_Analyze_OverloadExhausted(t *testing.T) {
	t.Parallel()
	ai := &stubAI{errs: []error{overloadedErr(), overloadedErr(), overloadedErr()}}
	svc := usecase.NewContractService(ai,
		stubExtractor{texts: map[string]string{"c.pdf": "contract"}},
		schemas[domain.TaskContract], fastPolicy(), 4000)

	res := svc.Analyze(context.Background(), "c.pdf", "/tmp/c.pdf")
	require.False(t, res.Success)
	assert.Equal(t, 3, ai.calls)
	assert.Equal(t, "Failed to analyze contract: API is currently overloaded. Please try again in a few minutes.", res.Error)
}

func TestContract_Analyze_NonRetryableFailsFast(t *testing.T) {
	t.Parallel()
	ai := &stubAI{errs: []error{errors.New("bad request")}}
	svc := usecase.NewContractService(ai,
		stubExtractor{texts: map[string]string{"c.pdf": "contract"}},
		schemas[domain.TaskContract], fastPolicy(), 4000)

	res := svc.Analyze(context.Background(), "c.pdf", "/tmp/c.pdf")
	require.False(t, res.Success)
	assert.Equal(t, 1, ai.calls)
	assert.Contains(t, res.Error, "Failed to analyze contract: bad request")
}

func TestContract_Analyze_DegradedDocument(t *testing.T) {
	t.Parallel()
	ai := &stubAI{out: "I am unable to analyze this document."}
	svc := usecase.NewContractService(ai,
		stubExtractor{texts: map[string]string{"c.pdf": "contract"}},
		schemas[domain.TaskContract], fastPolicy(), 4000)

	res := svc.Analyze(context.Background(), "c.pdf", "/tmp/c.pdf")
	require.True(t, res.Success)
	assert.Equal(t, "I am unable to analyze this document.", res.Data["raw_response"])
	assert.Equal(t, "Document Analysis", res.Data["contract_title"])
	risk := res.Data["risk_assessment"].(map[string]any)
	assert.Equal(t, 50, risk["safety_percentage"])
}

func TestContract_Analyze_ExtractionFailure(t *testing.T) {
	t.Parallel()
	svc := usecase.NewContractService(&stubAI{}, stubExtractor{}, schemas[domain.TaskContract], fastPolicy(), 4000)
	res := svc.Analyze(context.Background(), "x.pdf", "/tmp/x.pdf")
	require.False(t, res.Success)
	assert.Equal(t, "No text could be extracted from the file", res.Error)
}
