// Package tokencount estimates token usage for model calls.
//
// It uses tiktoken-go with the cl100k_base encoding, which is a reasonable
// approximation for the Anthropic models this service talks to. Estimates
// feed logging and metrics only; they never gate a request.
package tokencount

import (
	"sync"

	"log/slog"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/flookyhq/flooky-tools/internal/domain"
)

// Usage represents estimated token counts for one model call.
type Usage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
}

// Counter provides thread-safe token estimation.
type Counter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter { return &Counter{} }

// DefaultCounter is a global token counter instance.
var DefaultCounter = NewCounter()

func (c *Counter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, falling back to length estimate", slog.Any("error", err))
			return
		}
		c.enc = enc
	})
	return c.enc
}

// CountTokens estimates the number of tokens in text. When the encoding is
// unavailable it falls back to a rough 4-chars-per-token estimate.
func (c *Counter) CountTokens(text string) int {
	if enc := c.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return len(text) / 4
}

// CountRequest estimates prompt tokens for a completion request, including
// per-message structure overhead.
func (c *Counter) CountRequest(req domain.CompletionRequest) int {
	const tokensPerMessage = 4
	n := 0
	if req.System != "" {
		n += tokensPerMessage + c.CountTokens(req.System)
	}
	for _, m := range req.Messages {
		n += tokensPerMessage + c.CountTokens(m.Role) + c.CountTokens(m.Content)
	}
	// Reply priming overhead.
	n += 3
	return n
}

// CalculateUsage estimates full token usage for a completed call.
func (c *Counter) CalculateUsage(req domain.CompletionRequest, completion, model string) Usage {
	prompt := c.CountRequest(req)
	out := c.CountTokens(completion)
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: out,
		TotalTokens:      prompt + out,
		Model:            model,
	}
}

// CountTokensDefault uses the default counter to count tokens.
func CountTokensDefault(text string) int {
	return DefaultCounter.CountTokens(text)
}
