// Package transcribe provides speech-to-text via a Whisper HTTP service.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/pkg/textx"
)

// Client implements domain.Transcriber against a Whisper ASR web service.
// It POSTs the audio file as multipart form data and expects a JSON body
// with a text field.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a transcription client. Transcription of long audio is
// slow, so the timeout is generous.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   10 * time.Minute,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// TranscribePath transcribes the audio file at path and returns its text.
func (c *Client) TranscribePath(ctx context.Context, path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("op=transcribe.TranscribePath: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio_file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("op=transcribe.TranscribePath: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("op=transcribe.TranscribePath: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("op=transcribe.TranscribePath: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &buf)
	if err != nil {
		return "", fmt.Errorf("op=transcribe.TranscribePath: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranscribeFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: whisper status %d", domain.ErrTranscribeFailed, resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode: %v", domain.ErrTranscribeFailed, err)
	}
	text := textx.SanitizeText(out.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcription", domain.ErrTranscribeFailed)
	}
	return text, nil
}
