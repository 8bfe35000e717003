package examtrainer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// AIErrorCode is a machine-readable classification of a generation failure.
type AIErrorCode string

const (
	ErrCodeAPIKeyInvalid   AIErrorCode = "API_KEY_INVALID"
	ErrCodeNetworkError    AIErrorCode = "NETWORK_ERROR"
	ErrCodeRateLimit       AIErrorCode = "RATE_LIMIT"
	ErrCodeInvalidResponse AIErrorCode = "INVALID_RESPONSE"
	ErrCodeInvalidModel    AIErrorCode = "INVALID_MODEL"
	ErrCodeUnknown         AIErrorCode = "UNKNOWN_ERROR"
)

// AIError carries a code for the caller to branch on and a human-readable
// message. Provider clients raise it outward rather than recording it, so
// the requesting flow sees the failure.
type AIError struct {
	Code    AIErrorCode
	Message string
}

func (e *AIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// GeneratedChoice is one choice in a provider-generated question. The wire
// key is is_correct; the UI layer maps it to the store's isCorrect.
type GeneratedChoice struct {
	ID        string `json:"id"`
	Choice    string `json:"choice"`
	IsCorrect bool   `json:"is_correct"`
}

// GeneratedQuestion is one provider-generated question.
type GeneratedQuestion struct {
	ID       string            `json:"id"`
	Question string            `json:"question"`
	Genre    string            `json:"genre"`
	Detail   string            `json:"detail"`
	Choices  []GeneratedChoice `json:"choices"`
}

// GenerationResult is the uniform shape every provider normalizes into.
type GenerationResult struct {
	Questions []GeneratedQuestion `json:"questions"`
}

// AIClient generates exam questions from a prompt. Implementations make a
// single attempt: no retry, no backoff.
type AIClient interface {
	Generate(ctx context.Context, prompt string) (*GenerationResult, error)
}

// NewClient constructs the provider client for modelType. Every provider
// except Ollama rejects an empty API key.
func NewClient(modelType ModelType, apiKey string) (AIClient, error) {
	switch modelType {
	case ModelOpenAI:
		return NewOpenAIClient(apiKey)
	case ModelClaude:
		return NewClaudeClient(apiKey)
	case ModelOllama:
		return NewOllamaClient(apiKey), nil
	case ModelDeepSeek:
		return NewDeepSeekClient(apiKey)
	default:
		return nil, &AIError{
			Code:    ErrCodeInvalidModel,
			Message: fmt.Sprintf("unsupported model type: %s", modelType),
		}
	}
}

// AvailableModels lists every supported model type.
func AvailableModels() []ModelType {
	return []ModelType{ModelOpenAI, ModelClaude, ModelOllama, ModelDeepSeek}
}

var modelDisplayNames = map[ModelType]string{
	ModelOpenAI:   "OpenAI GPT-4",
	ModelClaude:   "Anthropic Claude",
	ModelOllama:   "Ollama (local)",
	ModelDeepSeek: "DeepSeek Chat",
}

var modelDescriptions = map[ModelType]string{
	ModelOpenAI:   "Generates questions with OpenAI's GPT-4o-mini model",
	ModelClaude:   "Generates questions with Anthropic's Claude",
	ModelOllama:   "Uses a lightweight model running locally, no API key needed",
	ModelDeepSeek: "Generates questions with DeepSeek's chat model",
}

// ModelDisplayName returns the human name for a model type. Unknown types
// fall back to the raw value.
func ModelDisplayName(modelType ModelType) string {
	if name, ok := modelDisplayNames[modelType]; ok {
		return name
	}
	return string(modelType)
}

// ModelDescription returns the human description for a model type.
func ModelDescription(modelType ModelType) string {
	return modelDescriptions[modelType]
}

// systemInstruction is shared by every provider: the same task framed in
// each provider's native request shape.
const systemInstruction = "You are an assistant that writes exam questions. Reply only with JSON in the requested format."

// httpClient is shared by the raw-HTTP providers. No timeout beyond the
// platform default and no cancellation once a call is in flight.
var httpClient = &http.Client{}

// requireAPIKey enforces the non-empty credential rule shared by every
// provider except Ollama.
func requireAPIKey(apiKey string) error {
	if apiKey == "" {
		return &AIError{Code: ErrCodeAPIKeyInvalid, Message: "API key is not configured"}
	}
	return nil
}

// statusToAIError maps a non-success HTTP status to the error taxonomy:
// 401 invalid key, 429 throttled, anything else a network-class failure.
func statusToAIError(provider string, status int) *AIError {
	switch status {
	case http.StatusUnauthorized:
		return &AIError{Code: ErrCodeAPIKeyInvalid, Message: fmt.Sprintf("%s rejected the API key", provider)}
	case http.StatusTooManyRequests:
		return &AIError{Code: ErrCodeRateLimit, Message: fmt.Sprintf("%s rate limit reached", provider)}
	default:
		return &AIError{Code: ErrCodeNetworkError, Message: fmt.Sprintf("%s API error: status %d", provider, status)}
	}
}

// transportError wraps a transport-level failure, keeping an existing
// AIError intact.
func transportError(err error) error {
	if aiErr, ok := err.(*AIError); ok {
		return aiErr
	}
	return &AIError{Code: ErrCodeNetworkError, Message: fmt.Sprintf("network error: %v", err)}
}

// normalizeResponse parses raw provider text into the uniform result shape
// and assigns an id to every question the provider left without one. Ids
// combine a generation timestamp with a batch counter, so they are unique
// within one batch.
func normalizeResponse(raw string) (*GenerationResult, error) {
	raw = stripCodeFence(raw)

	var result GenerationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, &AIError{Code: ErrCodeInvalidResponse, Message: "response is not valid JSON"}
	}
	if result.Questions == nil {
		return nil, &AIError{Code: ErrCodeInvalidResponse, Message: "response has no questions array"}
	}

	now := time.Now().UnixMilli()
	for i := range result.Questions {
		if result.Questions[i].ID == "" {
			result.Questions[i].ID = fmt.Sprintf("q-%d-%d", now, i)
		}
	}
	return &result, nil
}

// stripCodeFence removes a surrounding markdown code fence, which chat
// models emit around JSON despite instructions not to.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
