package examtrainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultClaudeURL = "https://api.anthropic.com/v1/messages"

// ClaudeClient generates questions through the Anthropic messages API.
type ClaudeClient struct {
	apiKey string
	apiURL string
}

// NewClaudeClient creates a Claude-backed client. The API key must be
// non-empty.
func NewClaudeClient(apiKey string) (*ClaudeClient, error) {
	if err := requireAPIKey(apiKey); err != nil {
		return nil, err
	}
	return &ClaudeClient{apiKey: apiKey, apiURL: defaultClaudeURL}, nil
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends the prompt and normalizes the JSON reply.
func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (*GenerationResult, error) {
	body, err := json.Marshal(claudeRequest{
		Model:     "claude-3-5-sonnet-latest",
		MaxTokens: 3000,
		System:    systemInstruction,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusToAIError("Claude", resp.StatusCode)
	}

	var parsed claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &AIError{Code: ErrCodeInvalidResponse, Message: "Claude returned a malformed body"}
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return nil, &AIError{Code: ErrCodeInvalidResponse, Message: "Claude returned an empty message"}
	}

	return normalizeResponse(parsed.Content[0].Text)
}
