package examtrainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultOllamaBaseURL points at a locally running Ollama server.
const DefaultOllamaBaseURL = "http://localhost:11434"

// OllamaClient generates questions through a local Ollama server. It is
// the one provider that works without an API key.
type OllamaClient struct {
	// BaseURL may be overridden before the first Generate call when the
	// server runs somewhere other than localhost.
	BaseURL string
}

// NewOllamaClient creates an Ollama-backed client. The apiKey argument is
// accepted for factory symmetry and ignored; Ollama has no credential.
func NewOllamaClient(apiKey string) *OllamaClient {
	_ = apiKey
	return &OllamaClient{BaseURL: DefaultOllamaBaseURL}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Generate sends the prompt to the generate endpoint and normalizes the
// JSON reply.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (*GenerationResult, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  "mistral",
		Prompt: fmt.Sprintf("System: %s\n\nUser: %s\n", systemInstruction, prompt),
		Stream: false,
		Options: ollamaOptions{
			Temperature: 0.7,
			NumPredict:  3000,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &AIError{
			Code:    ErrCodeNetworkError,
			Message: "cannot reach the Ollama server; check that it is running",
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusToAIError("Ollama", resp.StatusCode)
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &AIError{Code: ErrCodeInvalidResponse, Message: "Ollama returned a malformed body"}
	}
	if parsed.Response == "" {
		return nil, &AIError{Code: ErrCodeInvalidResponse, Message: "Ollama returned an empty response"}
	}

	return normalizeResponse(parsed.Response)
}

// CheckServerStatus reports whether the Ollama server answers its version
// endpoint.
func (c *OllamaClient) CheckServerStatus(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/version", nil)
	if err != nil {
		return false
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
