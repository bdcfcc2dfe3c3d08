package tokencount_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flookyhq/flooky-tools/internal/adapter/ai/tokencount"
	"github.com/flookyhq/flooky-tools/internal/domain"
)

func TestCountTokens_GrowsWithText(t *testing.T) {
	t.Parallel()
	c := tokencount.NewCounter()
	short := c.CountTokens("hello world")
	long := c.CountTokens("hello world, this is a much longer sentence with many more words in it")
	assert.Greater(t, long, short)
}

func TestCountRequest_IncludesSystemAndMessages(t *testing.T) {
	t.Parallel()
	c := tokencount.NewCounter()
	base := domain.CompletionRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "analyze this document"}},
	}
	withSystem := base
	withSystem.System = "You are a careful analyst."
	assert.Greater(t, c.CountRequest(withSystem), c.CountRequest(base))
	assert.Greater(t, c.CountRequest(base), 0)
}

func TestCalculateUsage_Totals(t *testing.T) {
	t.Parallel()
	c := tokencount.NewCounter()
	req := domain.CompletionRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hello"}},
	}
	u := c.CalculateUsage(req, "hi there, here is a reply", "test-model")
	assert.Equal(t, u.PromptTokens+u.CompletionTokens, u.TotalTokens)
	assert.Greater(t, u.CompletionTokens, 0)
	assert.Equal(t, "test-model", u.Model)
}
