package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TextGenerator produces a natural-language completion for a prompt.
// The gateway treats it as best-effort: any error falls back to
// deterministic templates.
type TextGenerator interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Ping(ctx context.Context) bool
}

const (
	defaultTextAPIURL = "https://api.anthropic.com/v1/messages"
	textModel         = "claude-3-5-haiku-20241022"
	textMaxTokens     = 500
)

// AnthropicClient calls the Anthropic messages API over plain HTTP.
type AnthropicClient struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewAnthropicClient builds a text-generation client. An empty apiURL uses
// the hosted endpoint.
func NewAnthropicClient(apiKey, apiURL string, timeout time.Duration) *AnthropicClient {
	if apiURL == "" {
		apiURL = defaultTextAPIURL
	}
	return &AnthropicClient{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

type textRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []textMessage `json:"messages"`
}

type textMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type textResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends one user prompt and returns the text of the first content
// block.
func (a *AnthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("text API key not configured")
	}

	body, err := json.Marshal(textRequest{
		Model:     textModel,
		MaxTokens: textMaxTokens,
		System:    system,
		Messages:  []textMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("text API request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("text API status %d", resp.StatusCode)
	}

	var parsed textResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode text API response: %w", err)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("empty response from text API")
}

// Ping runs a minimal completion to check reachability.
func (a *AnthropicClient) Ping(ctx context.Context) bool {
	if a.apiKey == "" {
		return false
	}
	_, err := a.Complete(ctx, "", "Hi")
	return err == nil
}
