package usecase

import (
	"context"
	"time"

	"log/slog"

	"github.com/flookyhq/flooky-tools/internal/adapter/observability"
	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/internal/normalize"
	"github.com/flookyhq/flooky-tools/internal/prompt"
	"github.com/flookyhq/flooky-tools/internal/schema"
)

// VideoService fact-checks video content: download the audio track,
// transcribe it, then score every claim in the transcription. The analysis
// call runs fully greedy (temperature zero) for reproducible scoring.
type VideoService struct {
	AI          domain.CompletionClient
	Downloader  domain.MediaDownloader
	Transcriber domain.Transcriber
	Schema      schema.TaskSchema
	MaxTokens   int
}

// NewVideoService constructs a VideoService.
func NewVideoService(ai domain.CompletionClient, dl domain.MediaDownloader, tr domain.Transcriber, sch schema.TaskSchema, maxTokens int) VideoService {
	return VideoService{AI: ai, Downloader: dl, Transcriber: tr, Schema: sch, MaxTokens: maxTokens}
}

// Analyze runs the full pipeline for videoURL and returns the transcription
// together with the claim-by-claim reliability analysis.
func (s VideoService) Analyze(ctx context.Context, videoURL string) domain.ProcessResult {
	start := time.Now()

	slog.Info("downloading video audio", slog.String("url", videoURL))
	audioPath, cleanup, err := s.Downloader.DownloadAudio(ctx, videoURL)
	if err != nil {
		observeTask(domain.TaskVideo, observability.OutcomeFailed, start)
		return failure("Failed to download video audio")
	}
	defer cleanup()

	slog.Info("transcribing video audio")
	transcription, err := s.Transcriber.TranscribePath(ctx, audioPath)
	if err != nil {
		observeTask(domain.TaskVideo, observability.OutcomeFailed, start)
		return failure("Failed to transcribe video")
	}

	out, err := s.AI.Complete(ctx, domain.CompletionRequest{
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: prompt.Video(transcription)}},
		MaxTokens:   s.MaxTokens,
		Temperature: domain.Temp(0),
	})
	if err != nil {
		observeTask(domain.TaskVideo, observability.OutcomeFailed, start)
		return upstreamFailure(domain.TaskVideo, err)
	}

	doc, outcome := normalizeOutput(domain.TaskVideo, s.Schema, out, normalize.Options{})
	observeTask(domain.TaskVideo, outcome, start)
	return domain.ProcessResult{Success: true, Data: map[string]any{
		"transcription": transcription,
		"analysis":      doc,
	}}
}
