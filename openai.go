package examtrainer

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient generates questions through the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates an OpenAI-backed client. The API key must be
// non-empty.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if err := requireAPIKey(apiKey); err != nil {
		return nil, err
	}
	return &OpenAIClient{client: openai.NewClient(apiKey)}, nil
}

// NewOpenAIClientWithConfig creates a client against a custom endpoint,
// used for OpenAI-compatible servers and tests.
func NewOpenAIClientWithConfig(apiKey, baseURL string) (*OpenAIClient, error) {
	if err := requireAPIKey(apiKey); err != nil {
		return nil, err
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}, nil
}

// Generate sends the prompt and normalizes the JSON reply.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (*GenerationResult, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: "gpt-4o-mini",
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemInstruction,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.7,
			MaxTokens:   3000,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, statusToAIError("OpenAI", apiErr.HTTPStatusCode)
		}
		return nil, transportError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &AIError{Code: ErrCodeInvalidResponse, Message: "OpenAI returned an empty completion"}
	}

	return normalizeResponse(resp.Choices[0].Message.Content)
}
