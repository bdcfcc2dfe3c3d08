package transcribe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flookyhq/flooky-tools/internal/adapter/transcribe"
	"github.com/flookyhq/flooky-tools/internal/domain"
)

func audioFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "audio.wav")
	require.NoError(t, os.WriteFile(p, []byte("RIFF fake wav"), 0o600))
	return p
}

func TestTranscribePath_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hdr, err := r.FormFile("audio_file")
		require.NoError(t, err)
		assert.Equal(t, "audio.wav", hdr.Filename)
		_, _ = w.Write([]byte(`{"text": " hello world "}`))
	}))
	defer srv.Close()

	c := transcribe.New(srv.URL)
	got, err := c.TranscribePath(context.Background(), audioFile(t))
	require.NoError(t, err)
	assert.Contains(t, got, "hello")
}

func TestTranscribePath_EmptyTextFails(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text": "   "}`))
	}))
	defer srv.Close()

	c := transcribe.New(srv.URL)
	_, err := c.TranscribePath(context.Background(), audioFile(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTranscribeFailed)
}

func TestTranscribePath_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := transcribe.New(srv.URL)
	_, err := c.TranscribePath(context.Background(), audioFile(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTranscribeFailed)
}

func TestTranscribePath_MissingFile(t *testing.T) {
	t.Parallel()
	c := transcribe.New("http://unreachable")
	_, err := c.TranscribePath(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, err)
}
