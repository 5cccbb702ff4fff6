package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justwhisper/justwhisper/internal/config"
	"github.com/justwhisper/justwhisper/internal/logring"
)

func writeTestRecording(t *testing.T, samples ...float32) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "recording.caf")
	require.NoError(t, os.WriteFile(path, floatPCMBytes(samples...), 0o600))
	return path
}

func TestTranscribeSuccessReturnsTopLevelText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hello from whisper"}`))
	}))
	defer server.Close()

	cfg := openAICfg()
	cfg.OpenAIWhisper.BaseURL = server.URL

	path := writeTestRecording(t, 0, 0.1, -0.1)
	ring := logring.New()

	got, err := transcribeWith(context.Background(), cfg, ring, path, server.Client())
	require.NoError(t, err)
	require.Equal(t, "hello from whisper", got)
	require.Greater(t, ring.Len(), 0)
}

func TestTranscribeHTTPFailureReportsStatusAndExcerpt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid api key"))
	}))
	defer server.Close()

	cfg := openAICfg()
	cfg.OpenAIWhisper.BaseURL = server.URL

	path := writeTestRecording(t, 0)
	_, err := transcribeWith(context.Background(), cfg, logring.New(), path, server.Client())

	require.Error(t, err)
	var speechErr *Error
	require.ErrorAs(t, err, &speechErr)
	require.Equal(t, Http, speechErr.Kind)
	require.Equal(t, http.StatusUnauthorized, speechErr.StatusCode)
	require.Contains(t, speechErr.BodyExcerpt, "invalid api key")
}

func TestTranscribeMissingRecordingFileIsIoError(t *testing.T) {
	cfg := openAICfg()
	_, err := transcribeWith(context.Background(), cfg, logring.New(), "/nonexistent/recording.caf", http.DefaultClient)

	require.Error(t, err)
	var speechErr *Error
	require.ErrorAs(t, err, &speechErr)
	require.Equal(t, Io, speechErr.Kind)
}

func TestTranscribeLowSignalTranscriptLogsWarning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"you"}`))
	}))
	defer server.Close()

	cfg := openAICfg()
	cfg.OpenAIWhisper.BaseURL = server.URL

	path := writeTestRecording(t, 0)
	ring := logring.New()

	got, err := transcribeWith(context.Background(), cfg, ring, path, server.Client())
	require.NoError(t, err)
	require.Equal(t, "you", got)

	found := false
	for _, entry := range ring.Snapshot() {
		if entry.Severity == logring.SeverityWarn {
			found = true
		}
	}
	require.True(t, found)
}

func TestTranscribeSendsVocabularyPromptHint(t *testing.T) {
	var receivedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		receivedPrompt = r.FormValue("prompt")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	cfg := openAICfg()
	cfg.OpenAIWhisper.BaseURL = server.URL
	cfg.Vocab = config.VocabConfig{
		GlobalSets: []string{"dev"},
		Sets: map[string]config.VocabSet{
			"dev": {Name: "dev", Boost: 1, Phrases: []string{"GitHub", "JavaScript"}},
		},
		MaxPhrases: 10,
	}

	path := writeTestRecording(t, 0)
	_, err := transcribeWith(context.Background(), cfg, logring.New(), path, server.Client())
	require.NoError(t, err)
	require.Equal(t, "GitHub, JavaScript", receivedPrompt)
}
