package examtrainer

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Fixed document keys. Each key is owned by exactly one store; no store
// ever writes another store's key.
const (
	KeyExams      = "exam_store"
	KeyProgress   = "user_progress"
	KeyLastExamID = "last_exam_id"
	KeyAISettings = "ai_settings"
)

// Storage is the persistent key-value contract the stores write through.
// Save overwrites the full document under key atomically; Load reports
// ok=false when the key has never been written.
type Storage interface {
	Save(key string, value any) error
	Load(key string, dst any) (ok bool, err error)
	InitializeStorage() error
	HasData() (bool, error)
}

// examDocument is the persisted shape of the exam collection.
type examDocument struct {
	Exam []Exam `json:"Exam"`
}

// progressDocument bundles the three progress logs so they are always
// persisted together and never desynchronize.
type progressDocument struct {
	WrongAnswers  []WrongAnswer        `json:"wrongAnswers"`
	AnswerHistory []AnswerHistoryEntry `json:"answerHistory"`
	ResultHistory []ResultHistoryEntry `json:"resultHistory"`
}

// SQLiteStorage persists JSON documents in a single-file SQLite database,
// one row per document key.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenStorage opens (creating if necessary) the document database at path.
func OpenStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) createTables() error {
	query := `CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute %s: %w", query, err)
	}
	return nil
}

// Save serializes value and writes it under key, replacing any prior
// value. SQLite applies the row write atomically, so a failed Save leaves
// the previous document intact.
func (s *SQLiteStorage) Save(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", key, err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO documents (key, value) VALUES (?, ?)",
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	return nil
}

// Load reads the document under key into dst. It returns ok=false with a
// nil error when the key has never been written.
func (s *SQLiteStorage) Load(key string, dst any) (bool, error) {
	var raw string
	err := s.db.QueryRow("SELECT value FROM documents WHERE key = ?", key).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to load document %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal document %s: %w", key, err)
	}
	return true, nil
}

// InitializeStorage resets the exam and progress documents to empty
// defaults.
func (s *SQLiteStorage) InitializeStorage() error {
	if err := s.Save(KeyExams, examDocument{Exam: []Exam{}}); err != nil {
		return err
	}
	return s.Save(KeyProgress, progressDocument{
		WrongAnswers:  []WrongAnswer{},
		AnswerHistory: []AnswerHistoryEntry{},
		ResultHistory: []ResultHistoryEntry{},
	})
}

// HasData reports whether the exam collection holds at least one exam.
func (s *SQLiteStorage) HasData() (bool, error) {
	var doc examDocument
	ok, err := s.Load(KeyExams, &doc)
	if err != nil {
		return false, err
	}
	return ok && len(doc.Exam) > 0, nil
}
