package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/justwhisper/justwhisper/internal/config"
	"github.com/justwhisper/justwhisper/internal/logring"
)

// requestTimeout bounds one upload+transcribe round trip, matching the
// doctor package's http.Client{Timeout: ...} convention for outbound calls.
const requestTimeout = 30 * time.Second

// maxBodyExcerpt caps the failure body excerpt per spec.md §6: "up to 1 KiB
// of body."
const maxBodyExcerpt = 1024

// httpDoer is the subset of *http.Client Transcribe depends on, narrowed to
// an interface so tests can substitute a scripted transport.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Transcribe implements the transcribe(audio, provider) -> String contract of
// spec.md §4.7: read the PCM scratch file, convert to canonical WAV, upload
// to the configured provider, and parse the response. Every stage logs one
// entry to ring.
func Transcribe(ctx context.Context, cfg config.Config, ring *logring.Ring, pcmPath string) (string, error) {
	return transcribeWith(ctx, cfg, ring, pcmPath, &http.Client{Timeout: requestTimeout})
}

func transcribeWith(ctx context.Context, cfg config.Config, ring *logring.Ring, pcmPath string, client httpDoer) (string, error) {
	logInfo(ring, "transcribe: start")

	floatPCM, err := os.ReadFile(pcmPath)
	if err != nil {
		logErr(ring, "transcribe: read recording failed: %v", err)
		return "", &Error{Kind: Io, Err: err}
	}

	wav, err := convertToWAV(floatPCM)
	if err != nil {
		logErr(ring, "transcribe: convert failed: %v", err)
		return "", err
	}
	logInfo(ring, "transcribe: converted %d bytes of PCM to WAV", len(floatPCM))

	phrases, _, err := config.BuildSpeechPhrases(cfg)
	if err != nil {
		// Vocabulary misconfiguration is caught at validation time; treat any
		// residual error here as "no hint," never as a transcription failure.
		phrases = nil
	}
	prompt := config.PromptHint(phrases)

	req, err := buildRequest(ctx, cfg, wav, prompt)
	if err != nil {
		logErr(ring, "transcribe: %v", err)
		return "", err
	}

	logInfo(ring, "transcribe: sending to %s", cfg.SpeechProvider)
	resp, err := client.Do(req)
	if err != nil {
		logErr(ring, "transcribe: send failed: %v", err)
		return "", &Error{Kind: Io, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logErr(ring, "transcribe: read response failed: %v", err)
		return "", &Error{Kind: Io, Err: err}
	}
	logInfo(ring, "transcribe: received status %d", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		excerpt := body
		if len(excerpt) > maxBodyExcerpt {
			excerpt = excerpt[:maxBodyExcerpt]
		}
		httpErr := &Error{Kind: Http, StatusCode: resp.StatusCode, BodyExcerpt: string(excerpt)}
		logErr(ring, "transcribe: %v", httpErr)
		return "", httpErr
	}

	text, err := parseTranscriptionResponse(body)
	if err != nil {
		logErr(ring, "transcribe: parse failed: %v", err)
		return "", err
	}
	logInfo(ring, "transcribe: parsed transcript (%d chars)", len(text))

	if isLowSignal(text) {
		logWarn(ring, "transcribe: transcript was %q; likely quiet input, consider raising microphone gain", lowSignalTranscript)
	}

	return text, nil
}

func logInfo(ring *logring.Ring, format string, args ...any) {
	if ring == nil {
		return
	}
	ring.Info(fmt.Sprintf(format, args...))
}

func logWarn(ring *logring.Ring, format string, args ...any) {
	if ring == nil {
		return
	}
	ring.Warn(fmt.Sprintf(format, args...))
}

func logErr(ring *logring.Ring, format string, args ...any) {
	if ring == nil {
		return
	}
	ring.Error(fmt.Sprintf(format, args...))
}
