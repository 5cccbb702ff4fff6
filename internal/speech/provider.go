package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/justwhisper/justwhisper/internal/config"
)

// buildRequest constructs the multipart/form-data upload per spec.md §4.7:
// field "file" (audio.wav, audio/wav), response_format=verbose_json,
// language=en, temperature=0.0, and model for OpenAI-family providers.
func buildRequest(ctx context.Context, cfg config.Config, wav []byte, prompt string) (*http.Request, error) {
	var url, authHeader, authValue, model string

	switch cfg.SpeechProvider {
	case "azure":
		if !cfg.AzureWhisper.Usable() {
			return nil, &Error{Kind: MissingCredential, Err: errMissingAzureWhisperCredential}
		}
		url = fmt.Sprintf("%s/openai/deployments/%s/audio/transcriptions?api-version=%s",
			strings.TrimRight(cfg.AzureWhisper.Endpoint, "/"), cfg.AzureWhisper.Deployment, cfg.AzureWhisper.APIVersion)
		authHeader, authValue = "api-key", cfg.AzureWhisper.APIKey

	case "openai":
		if !cfg.OpenAIWhisper.Usable() {
			return nil, &Error{Kind: MissingCredential, Err: errMissingOpenAIWhisperCredential}
		}
		url = strings.TrimRight(cfg.OpenAIWhisper.BaseURL, "/") + "/audio/transcriptions"
		authHeader, authValue = "Authorization", "Bearer "+cfg.OpenAIWhisper.APIKey
		model = cfg.OpenAIWhisper.Model

	default:
		return nil, &Error{Kind: InvalidEndpoint, Err: fmt.Errorf("unknown speech provider %q", cfg.SpeechProvider)}
	}

	body, contentType, err := buildMultipartBody(wav, model, prompt)
	if err != nil {
		return nil, &Error{Kind: Io, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, &Error{Kind: InvalidEndpoint, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(authHeader, authValue)

	return req, nil
}

func buildMultipartBody(wav []byte, model, prompt string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	header.Set("Content-Type", "audio/wav")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, bytes.NewReader(wav)); err != nil {
		return nil, "", err
	}

	_ = w.WriteField("response_format", "verbose_json")
	_ = w.WriteField("language", "en")
	_ = w.WriteField("temperature", "0.0")
	if model != "" {
		_ = w.WriteField("model", model)
	}
	if prompt != "" {
		_ = w.WriteField("prompt", prompt)
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
