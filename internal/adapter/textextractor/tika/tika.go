// Package tika provides Apache Tika integration for text extraction.
//
// It extracts text content from document formats including PDF, Word and
// scanned images (Tika dispatches to OCR for those). Plain text and CSV
// uploads are read directly without a server round trip.
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/pkg/textx"
)

// Client is a minimal Apache Tika HTTP client implementing domain.TextExtractor.
// It performs PUT /tika with Accept: text/plain to retrieve extracted text.
// See: https://tika.apache.org/server/ for API details.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Tika client with a default timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ExtractPath extracts plain text from the file at path. The original
// fileName selects the extraction route: txt/csv read locally, everything
// else goes through the Tika server.
func (c *Client) ExtractPath(ctx context.Context, fileName, path string) (string, error) {
	// Uploads are written to the system temp dir; refuse anything outside it.
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("op=tika.ExtractPath: %w", err)
	}
	abs = filepath.Clean(abs)
	tmp := filepath.Clean(os.TempDir())
	if abs != tmp && !strings.HasPrefix(abs, tmp+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: disallowed path %s", domain.ErrInvalidArgument, abs)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("op=tika.ExtractPath: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".txt" || ext == ".csv" {
		return textx.CollapseSpace(string(data)), nil
	}

	u := c.baseURL
	if u == "" {
		u = "http://localhost:9998"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("op=tika.ExtractPath: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	if ct := contentTypeFromExt(ext); ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: tika status %d", domain.ErrExtractionFailed, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrExtractionFailed, err)
	}
	// Sanitize control characters and collapse whitespace to single spaces.
	return textx.CollapseSpace(string(b)), nil
}

func contentTypeFromExt(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".txt":
		return "text/plain"
	default:
		if ext != "" {
			return mime.TypeByExtension(ext)
		}
	}
	return ""
}
