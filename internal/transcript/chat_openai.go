package transcript

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// OpenAIChatProvider implements ChatProvider against an OpenAI-compatible
// chat-completion endpoint.
type OpenAIChatProvider struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// NewOpenAIChatProvider constructs a ChatProvider for an OpenAI-compatible
// endpoint. Returns nil if any credential field is empty.
func NewOpenAIChatProvider(baseURL, model, apiKey string) *OpenAIChatProvider {
	baseURL = strings.TrimSpace(baseURL)
	model = strings.TrimSpace(model)
	apiKey = strings.TrimSpace(apiKey)
	if baseURL == "" || model == "" || apiKey == "" {
		return nil
	}
	return &OpenAIChatProvider{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
	}
}

// Complete sends one chat-completion request and returns the first choice's
// message content.
func (p *OpenAIChatProvider) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	body := chatCompletionRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: enhancementTemperature,
		MaxTokens:   enhancementMaxTokens,
		Model:       p.model,
	}

	return doChatCompletion(ctx, p.httpClient, p.baseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + p.apiKey,
		"Content-Type":  "application/json",
	}, body)
}
