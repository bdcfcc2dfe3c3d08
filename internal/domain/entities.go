package domain

import (
	"context"
	"errors"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrExtractionFailed   = errors.New("extraction failed")
	ErrDetectionFailed    = errors.New("language detection failed")
	ErrDownloadFailed     = errors.New("media download failed")
	ErrTranscribeFailed   = errors.New("transcription failed")
	ErrUpstreamOverloaded = errors.New("upstream overloaded")
	ErrUpstreamFailure    = errors.New("upstream failure")
	ErrInternal           = errors.New("internal error")
)

// Task names used for routing, schemas and metrics labels.
const (
	TaskBill      = "bill"
	TaskContract  = "contract"
	TaskFinancial = "financial"
	TaskCV        = "cv"
	TaskVideo     = "video"
	TaskChat      = "chat"
)

// Message is a single conversation turn sent to or received from the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest describes one model call. System travels separately from
// Messages because the upstream API takes it as a top-level parameter.
// Temperature nil leaves sampling at the API default; zero is meaningful
// (fully greedy) and must be set explicitly.
type CompletionRequest struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature *float64
}

// Temp returns a *float64 for CompletionRequest.Temperature.
func Temp(v float64) *float64 { return &v }

// ProcessResult is the envelope every analysis pipeline resolves to.
// Success=false carries a user-facing error message; Data is always a
// well-formed document, even on the degraded path.
type ProcessResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// CompletionClient (port)

type CompletionClient interface {
	// Complete performs one model call and returns the concatenated text output.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// TextExtractor (port)
// ExtractPath extracts text from a file at path with provided original filename.
// Implementations may call external services (e.g., Tika) or read locally.
type TextExtractor interface {
	ExtractPath(ctx context.Context, fileName, path string) (string, error)
}

// LanguageDetector (port)
// Detect returns the dominant language of text as an English language name
// (e.g. "Spanish"). Implementations fall back to "English" when unsure.
type LanguageDetector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// Transcriber (port)

type Transcriber interface {
	TranscribePath(ctx context.Context, path string) (string, error)
}

// MediaDownloader (port)
// DownloadAudio fetches the audio track of a video URL to a temp file and
// returns its path plus a cleanup func.
type MediaDownloader interface {
	DownloadAudio(ctx context.Context, url string) (path string, cleanup func(), err error)
}

// ConversationStore (port)
// Implementations cap history at maxHistory user/assistant turns while keeping
// the system turn pinned at index 0.

type ConversationStore interface {
	History(ctx context.Context, sessionID string) ([]Message, error)
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	Reset(ctx context.Context, sessionID string) error
}
