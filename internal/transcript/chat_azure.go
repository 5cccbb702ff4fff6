package transcript

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// AzureChatProvider implements ChatProvider against an Azure OpenAI
// chat-completion deployment.
type AzureChatProvider struct {
	httpClient *http.Client
	endpoint   string
	deployment string
	apiVersion string
	apiKey     string
}

// NewAzureChatProvider constructs a ChatProvider for an Azure OpenAI
// deployment. Returns nil if any credential field is empty.
func NewAzureChatProvider(endpoint, deployment, apiVersion, apiKey string) *AzureChatProvider {
	endpoint = strings.TrimSpace(endpoint)
	deployment = strings.TrimSpace(deployment)
	apiVersion = strings.TrimSpace(apiVersion)
	apiKey = strings.TrimSpace(apiKey)
	if endpoint == "" || deployment == "" || apiVersion == "" || apiKey == "" {
		return nil
	}
	return &AzureChatProvider{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		endpoint:   strings.TrimRight(endpoint, "/"),
		deployment: deployment,
		apiVersion: apiVersion,
		apiKey:     apiKey,
	}
}

type chatCompletionRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Model       string        `json:"model,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat-completion request and returns the first choice's
// message content.
func (p *AzureChatProvider) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", p.endpoint, p.deployment, p.apiVersion)
	body := chatCompletionRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: enhancementTemperature,
		MaxTokens:   enhancementMaxTokens,
	}

	return doChatCompletion(ctx, p.httpClient, url, map[string]string{
		"api-key":      p.apiKey,
		"Content-Type": "application/json",
	}, body)
}
