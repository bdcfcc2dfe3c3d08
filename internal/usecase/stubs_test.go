package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/internal/retry"
	"github.com/flookyhq/flooky-tools/internal/schema"
)

var schemas = schema.MustLoad()

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2.0}
}

// stubAI returns queued errors first, then out for every later call.
type stubAI struct {
	out   string
	errs  []error
	calls int
	reqs  []domain.CompletionRequest
}

func (s *stubAI) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	s.calls++
	s.reqs = append(s.reqs, req)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return s.out, nil
}

func overloadedErr() error {
	return fmt.Errorf("%w: status 529", domain.ErrUpstreamOverloaded)
}

type stubExtractor struct {
	texts map[string]string
	err   error
}

func (e stubExtractor) ExtractPath(_ context.Context, fileName, _ string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	text, ok := e.texts[fileName]
	if !ok {
		return "", errors.New("no such file")
	}
	return text, nil
}

type stubDetector struct {
	lang string
	err  error
}

func (d stubDetector) Detect(_ context.Context, _ string) (string, error) {
	return d.lang, d.err
}

type stubDownloader struct {
	path    string
	err     error
	cleaned bool
}

func (d *stubDownloader) DownloadAudio(_ context.Context, _ string) (string, func(), error) {
	if d.err != nil {
		return "", nil, d.err
	}
	return d.path, func() { d.cleaned = true }, nil
}

type stubTranscriber struct {
	text string
	err  error
}

func (t stubTranscriber) TranscribePath(_ context.Context, _ string) (string, error) {
	return t.text, t.err
}
