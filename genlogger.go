package examtrainer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenerationLogger writes one debug log file per AI generation run,
// recording the prompt sent and the raw response received.
type GenerationLogger struct {
	file *os.File
	mu   sync.Mutex
}

// NewGenerationLogger creates a log file for one generation run, named
// after the exam and start time.
func NewGenerationLogger(dir, examName string, modelType ModelType) (*GenerationLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("generate-%d.log", time.Now().UnixMilli()))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	l := &GenerationLogger{file: file}
	l.Logf("=== Question Generation Log ===\n")
	l.Logf("Exam: %s\n", examName)
	l.Logf("Provider: %s\n", modelType)
	l.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	l.Logf("===============================\n\n")
	return l, nil
}

// Logf writes a formatted entry with a timestamp.
func (l *GenerationLogger) Logf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	l.file.Sync()
}

// LogPrompt records the prompt sent to a provider.
func (l *GenerationLogger) LogPrompt(modelType ModelType, prompt string) {
	l.Logf("=== PROMPT (%s) ===\n%s\n===================\n\n", modelType, prompt)
}

// LogResult records the outcome of a generation call.
func (l *GenerationLogger) LogResult(modelType ModelType, questionCount int, err error) {
	if err != nil {
		l.Logf("=== RESULT (%s) ===\nerror: %v\n===================\n\n", modelType, err)
		return
	}
	l.Logf("=== RESULT (%s) ===\n%d questions\n===================\n\n", modelType, questionCount)
}

// Close finishes and closes the log file.
func (l *GenerationLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] === Generation Complete ===\n", timestamp)
	err := l.file.Close()
	l.file = nil
	return err
}
