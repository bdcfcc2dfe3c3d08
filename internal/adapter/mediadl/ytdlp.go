// Package mediadl downloads audio tracks from video URLs using yt-dlp.
package mediadl

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/flookyhq/flooky-tools/internal/domain"
)

// Downloader implements domain.MediaDownloader by shelling out to yt-dlp
// with audio extraction enabled.
type Downloader struct {
	binary string
}

// New constructs a Downloader. binary defaults to "yt-dlp" when empty.
func New(binary string) *Downloader {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Downloader{binary: binary}
}

// DownloadAudio fetches the best audio track of url as WAV into a fresh
// temp dir. cleanup removes the whole dir and is safe to call even when
// err is non-nil.
func (d *Downloader) DownloadAudio(ctx context.Context, url string) (string, func(), error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", func() {}, fmt.Errorf("%w: url must be http(s)", domain.ErrInvalidArgument)
	}
	dir, err := os.MkdirTemp("", "mediadl-*")
	if err != nil {
		return "", func() {}, fmt.Errorf("op=mediadl.DownloadAudio: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	cmd := exec.CommandContext(ctx, d.binary,
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "wav",
		"--audio-quality", "192",
		"--output", filepath.Join(dir, "video.%(ext)s"),
		"--no-playlist",
		url,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		cleanup()
		slog.Warn("yt-dlp failed",
			slog.String("url", url),
			slog.String("output", tail(string(out), 512)),
			slog.Any("error", err))
		return "", func() {}, fmt.Errorf("%w: yt-dlp: %v", domain.ErrDownloadFailed, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("op=mediadl.DownloadAudio: %w", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".wav") {
			return filepath.Join(dir, e.Name()), cleanup, nil
		}
	}
	cleanup()
	return "", func() {}, fmt.Errorf("%w: no audio produced", domain.ErrDownloadFailed)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
