package examtrainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultDeepSeekURL = "https://api.deepseek.com/v1/chat/completions"

// DeepSeekClient generates questions through the DeepSeek chat completions
// API, which mirrors the OpenAI wire shape.
type DeepSeekClient struct {
	apiKey string
	apiURL string
}

// NewDeepSeekClient creates a DeepSeek-backed client. The API key must be
// non-empty.
func NewDeepSeekClient(apiKey string) (*DeepSeekClient, error) {
	if err := requireAPIKey(apiKey); err != nil {
		return nil, err
	}
	return &DeepSeekClient{apiKey: apiKey, apiURL: defaultDeepSeekURL}, nil
}

type deepseekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepseekMessage `json:"messages"`
	Temperature float32           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepseekResponse struct {
	Choices []struct {
		Message deepseekMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt and normalizes the JSON reply.
func (c *DeepSeekClient) Generate(ctx context.Context, prompt string) (*GenerationResult, error) {
	body, err := json.Marshal(deepseekRequest{
		Model: "deepseek-chat",
		Messages: []deepseekMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   3000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusToAIError("DeepSeek", resp.StatusCode)
	}

	var parsed deepseekResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &AIError{Code: ErrCodeInvalidResponse, Message: "DeepSeek returned a malformed body"}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, &AIError{Code: ErrCodeInvalidResponse, Message: "DeepSeek returned an empty completion"}
	}

	return normalizeResponse(parsed.Choices[0].Message.Content)
}
