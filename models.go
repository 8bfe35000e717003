package examtrainer

import (
	"sync"
	"time"
)

// Exam is the top-level unit of organization: a named collection of
// genres and multiple-choice questions.
type Exam struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Detail    string     `json:"detail"`
	Genres    []Genre    `json:"genres"`
	Questions []Question `json:"questions"`
}

// Genre is a named tag grouping questions within one exam. Questions
// reference a genre by name, not by id.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Question is a multiple-choice question with 2-8 choices, one or more
// of which are correct.
type Question struct {
	ID       int64    `json:"id"`
	Question string   `json:"question"`
	Detail   string   `json:"detail"`
	Genre    string   `json:"genre"`
	Choices  []Choice `json:"choices"`
}

// Choice is one selectable answer option.
type Choice struct {
	ID        int64  `json:"id"`
	Choice    string `json:"choice"`
	IsCorrect bool   `json:"isCorrect"`
}

// CorrectChoiceIDs returns the ids of all choices flagged correct.
func (q Question) CorrectChoiceIDs() []int64 {
	var ids []int64
	for _, c := range q.Choices {
		if c.IsCorrect {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// ExamDraft holds the user-supplied fields of a new exam. Genres and
// questions always start empty; AddExam assigns the id.
type ExamDraft struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
}

// GenreDraft holds the user-supplied fields of a new genre.
type GenreDraft struct {
	Name string `json:"name"`
}

// QuestionDraft holds the user-supplied fields of a new question. The
// form layer validates text and choice bounds before it reaches the store.
type QuestionDraft struct {
	Question string   `json:"question"`
	Detail   string   `json:"detail"`
	Genre    string   `json:"genre"`
	Choices  []Choice `json:"choices"`
}

// WrongAnswer is one append-only log entry recording an incorrect attempt.
// The same question appears once per wrong attempt.
type WrongAnswer struct {
	ExamID     int64 `json:"examId"`
	QuestionID int64 `json:"questionId"`
	Timestamp  int64 `json:"timestamp"`
}

// AnswerHistoryEntry records one answered question.
type AnswerHistoryEntry struct {
	ExamID     int64 `json:"examId"`
	QuestionID int64 `json:"questionId"`
	IsCorrect  bool  `json:"isCorrect"`
	TimeSpent  int64 `json:"timeSpent"` // milliseconds
	Timestamp  int64 `json:"timestamp"`
}

// ResultHistoryEntry is the session-level aggregate written once per
// completed quiz attempt.
type ResultHistoryEntry struct {
	ID             int64    `json:"id"`
	ExamID         int64    `json:"examId"`
	TotalQuestions int      `json:"totalQuestions"`
	CorrectAnswers int      `json:"correctAnswers"`
	TotalTime      int64    `json:"totalTime"` // milliseconds
	Mode           QuizMode `json:"mode"`
	Timestamp      int64    `json:"timestamp"`
}

// ExamStats aggregates all result histories for one exam.
type ExamStats struct {
	TotalAnswered  int   `json:"totalAnswered"`
	CorrectAnswers int   `json:"correctAnswers"`
	AverageTime    int64 `json:"averageTime"` // milliseconds, mean per attempt
}

// QuizMode selects how a session's question list is built.
type QuizMode string

const (
	ModeRandom    QuizMode = "random" // random subset of the exam
	ModeAll       QuizMode = "all"    // every question in the exam
	ModeWrongOnly QuizMode = "wrong"  // previously-wrong questions only
)

// ModelType identifies an AI provider backend.
type ModelType string

const (
	ModelOpenAI   ModelType = "OpenAI"
	ModelClaude   ModelType = "Claude"
	ModelOllama   ModelType = "Ollama"
	ModelDeepSeek ModelType = "DeepSeek"
)

// AISettings is the singleton provider configuration, one per installation.
type AISettings struct {
	ModelType     ModelType `json:"modelType"`
	APIKey        string    `json:"apiKey"`
	DefaultPrompt string    `json:"defaultPrompt"`
}

// DefaultAISettings is used when nothing has been persisted yet.
func DefaultAISettings() AISettings {
	return AISettings{ModelType: ModelOpenAI}
}

// idGenerator issues millisecond-timestamp ids. Two entities created in the
// same millisecond would otherwise collide, so the generator bumps past the
// last issued id instead of handing it out twice.
type idGenerator struct {
	mu   sync.Mutex
	last int64
}

func (g *idGenerator) next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := time.Now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
