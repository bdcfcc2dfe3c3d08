// Package anthropic implements domain.CompletionClient against the
// Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/flookyhq/flooky-tools/internal/adapter/ai/tokencount"
	"github.com/flookyhq/flooky-tools/internal/adapter/observability"
	"github.com/flookyhq/flooky-tools/internal/config"
	"github.com/flookyhq/flooky-tools/internal/domain"
)

// statusOverloaded is the Anthropic-specific overload status. It is the
// only status the retry policy treats as transient.
const statusOverloaded = 529

// Client calls the Anthropic Messages API. It performs exactly one HTTP
// request per Complete call; overload recovery is the caller's concern.
type Client struct {
	cfg     config.Config
	hc      *http.Client
	counter *tokencount.Counter
}

// New constructs a client with the configured request timeout and an
// OTEL-instrumented transport.
func New(cfg config.Config) *Client {
	timeout := cfg.AIRequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		counter: tokencount.NewCounter(),
	}
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model       string       `json:"model"`
	System      string       `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete performs one Messages API call and returns the concatenated
// text segments of the response content, in order.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if c.cfg.AnthropicAPIKey == "" {
		return "", fmt.Errorf("%w: ANTHROPIC_API_KEY missing", domain.ErrInvalidArgument)
	}
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("%w: empty message list", domain.ErrInvalidArgument)
	}

	body := apiRequest{
		Model:     c.cfg.Model,
		System:    req.System,
		MaxTokens: req.MaxTokens,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = c.cfg.MaxTokens
	}
	// Unset temperature is omitted so the API default applies; an explicit
	// zero (fact-checking runs fully greedy) still goes on the wire.
	body.Temperature = req.Temperature
	for _, m := range req.Messages {
		if m.Role == domain.RoleSystem {
			continue
		}
		body.Messages = append(body.Messages, apiMessage{Role: m.Role, Content: m.Content})
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("op=anthropic.Complete: marshal: %w", err)
	}

	slog.Debug("calling anthropic messages api",
		slog.String("model", body.Model),
		slog.Int("max_tokens", body.MaxTokens),
		slog.Int("messages", len(body.Messages)),
		slog.Int("prompt_tokens_est", c.counter.CountRequest(req)))

	start := time.Now()
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AnthropicBaseURL+"/v1/messages", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("op=anthropic.Complete: %w", err)
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("x-api-key", c.cfg.AnthropicAPIKey)
	r.Header.Set("anthropic-version", c.cfg.AnthropicVersion)

	resp, err := c.hc.Do(r)
	observability.AIRequestDuration.WithLabelValues("complete").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.AIRequestsTotal.WithLabelValues("complete", "transport_error").Inc()
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()
	observability.AIRequestsTotal.WithLabelValues("complete", fmt.Sprintf("%d", resp.StatusCode)).Inc()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrUpstreamFailure, err)
	}

	if resp.StatusCode == statusOverloaded {
		slog.Warn("anthropic api overloaded",
			slog.Int("status", resp.StatusCode),
			slog.String("request_id", resp.Header.Get("request-id")))
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamOverloaded, resp.StatusCode, snippet(raw, 512))
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("anthropic api error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", snippet(raw, 512)))
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamFailure, resp.StatusCode, snippet(raw, 512))
	}

	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode: %v", domain.ErrUpstreamFailure, err)
	}
	var sb strings.Builder
	for _, seg := range out.Content {
		if seg.Type == "text" {
			sb.WriteString(seg.Text)
		}
	}
	text := sb.String()

	usage := c.counter.CalculateUsage(req, text, body.Model)
	observability.RecordTokens("complete", usage.PromptTokens, usage.CompletionTokens)
	slog.Debug("anthropic call completed",
		slog.Int("completion_tokens_est", usage.CompletionTokens),
		slog.Duration("duration", time.Since(start)))
	return text, nil
}

func snippet(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
