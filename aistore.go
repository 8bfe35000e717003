package examtrainer

import (
	"context"
	"sync"
)

// AISettingsPatch is a partial update to the settings singleton; nil fields
// are left unchanged. Unlike ExamStore.UpdateExam, settings updates are a
// shallow merge.
type AISettingsPatch struct {
	ModelType     *ModelType
	APIKey        *string
	DefaultPrompt *string
}

// AIStore persists provider selection and credentials and orchestrates
// question generation: key check, client construction, prompt building,
// and the single provider call.
type AIStore struct {
	Notifier

	mu      sync.RWMutex
	storage Storage

	settings AISettings
	err      error

	// newClient is the factory used by GenerateQuestions; tests swap in a
	// fake.
	newClient func(ModelType, string) (AIClient, error)

	// LogDir, when non-empty, enables per-generation debug log files.
	LogDir string
}

// NewAIStore creates the store and loads persisted settings, falling back
// to the OpenAI default when nothing has been saved yet.
func NewAIStore(storage Storage) *AIStore {
	s := &AIStore{storage: storage, newClient: NewClient}

	var settings AISettings
	ok, err := s.storage.Load(KeyAISettings, &settings)
	if err != nil {
		s.settings = DefaultAISettings()
		s.err = err
		return s
	}
	if !ok {
		settings = DefaultAISettings()
		// First run: persist the default so later loads see it.
		if err := s.storage.Save(KeyAISettings, settings); err != nil {
			s.err = err
		}
	}
	s.settings = settings
	return s
}

// SetClientFactory replaces the provider factory used by
// GenerateQuestions. Callers use it to redirect providers at non-default
// endpoints (a remote Ollama server) or to inject fakes.
func (s *AIStore) SetClientFactory(fn func(ModelType, string) (AIClient, error)) {
	s.mu.Lock()
	s.newClient = fn
	s.mu.Unlock()
}

// Settings returns the current settings.
func (s *AIStore) Settings() AISettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Err returns the error recorded by the most recent failed operation.
func (s *AIStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// UpdateSettings merges the patch into the current settings and persists
// the result. On failure the in-memory settings are left unchanged.
func (s *AIStore) UpdateSettings(patch AISettingsPatch) error {
	s.mu.Lock()

	updated := s.settings
	if patch.ModelType != nil {
		updated.ModelType = *patch.ModelType
	}
	if patch.APIKey != nil {
		updated.APIKey = *patch.APIKey
	}
	if patch.DefaultPrompt != nil {
		updated.DefaultPrompt = *patch.DefaultPrompt
	}

	if err := s.storage.Save(KeyAISettings, updated); err != nil {
		s.err = err
		s.mu.Unlock()
		return err
	}
	s.settings = updated
	s.err = nil
	s.mu.Unlock()

	s.notify()
	return nil
}

// GenerateQuestions builds the prompt for the exam and keywords, invokes
// the configured provider once, and returns the normalized result with
// structurally invalid questions filtered out. Every provider except
// Ollama requires a configured API key. Errors propagate to the caller so
// the requesting flow sees the failure.
func (s *AIStore) GenerateQuestions(ctx context.Context, examName string, keywords []string) (*GenerationResult, error) {
	s.mu.RLock()
	settings := s.settings
	logDir := s.LogDir
	newClient := s.newClient
	s.mu.RUnlock()

	if settings.ModelType != ModelOllama && settings.APIKey == "" {
		err := &AIError{Code: ErrCodeAPIKeyInvalid, Message: "API key is not configured"}
		s.recordErr(err)
		return nil, err
	}

	client, err := newClient(settings.ModelType, settings.APIKey)
	if err != nil {
		s.recordErr(err)
		return nil, err
	}

	prompt := BuildPrompt(examName, keywords)

	var genLog *GenerationLogger
	if logDir != "" {
		if genLog, err = NewGenerationLogger(logDir, examName, settings.ModelType); err != nil {
			// Generation proceeds without debug logging.
			VerboseLog("Failed to create generation log: %v", err)
			genLog = nil
		} else {
			defer genLog.Close()
			genLog.LogPrompt(settings.ModelType, prompt)
		}
	}

	result, err := client.Generate(ctx, prompt)
	if genLog != nil {
		count := 0
		if result != nil {
			count = len(result.Questions)
		}
		genLog.LogResult(settings.ModelType, count, err)
	}
	if err != nil {
		s.recordErr(err)
		return nil, err
	}

	valid, _ := FilterGeneratedQuestions(result.Questions)
	if len(valid) == 0 {
		err := &AIError{Code: ErrCodeInvalidResponse, Message: "no generated question passed validation"}
		s.recordErr(err)
		return nil, err
	}

	s.recordErr(nil)
	return &GenerationResult{Questions: valid}, nil
}

func (s *AIStore) recordErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
