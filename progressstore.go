package examtrainer

import (
	"sort"
	"sync"
	"time"
)

// ProgressStore owns the three append-only progress logs: wrong answers,
// per-answer history, and per-attempt result history. The logs are loaded
// and persisted together as a single bundle so they can never
// desynchronize.
type ProgressStore struct {
	Notifier

	mu      sync.RWMutex
	storage Storage
	ids     idGenerator

	wrongAnswers  []WrongAnswer
	answerHistory []AnswerHistoryEntry
	resultHistory []ResultHistoryEntry
	err           error
}

// NewProgressStore creates a store bound to storage and loads the
// persisted bundle. Load failures are recorded, not returned; the logs
// start empty.
func NewProgressStore(storage Storage) *ProgressStore {
	s := &ProgressStore{storage: storage}
	s.LoadProgress()
	return s
}

// LoadProgress replaces the in-memory logs from storage.
func (s *ProgressStore) LoadProgress() error {
	var doc progressDocument
	_, err := s.storage.Load(KeyProgress, &doc)

	s.mu.Lock()
	if err != nil {
		s.err = err
		s.mu.Unlock()
		return err
	}
	s.wrongAnswers = doc.WrongAnswers
	s.answerHistory = doc.AnswerHistory
	s.resultHistory = doc.ResultHistory
	s.err = nil
	s.mu.Unlock()

	s.notify()
	return nil
}

// Err returns the error recorded by the most recent failed operation, or
// nil if the last operation succeeded.
func (s *ProgressStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// AddWrongAnswer appends a timestamped wrong-answer entry and persists the
// full bundle. Repeated wrong attempts on the same question each append a
// new entry.
func (s *ProgressStore) AddWrongAnswer(examID, questionID int64) error {
	s.mu.Lock()

	updated := make([]WrongAnswer, len(s.wrongAnswers), len(s.wrongAnswers)+1)
	copy(updated, s.wrongAnswers)
	updated = append(updated, WrongAnswer{
		ExamID:     examID,
		QuestionID: questionID,
		Timestamp:  time.Now().UnixMilli(),
	})

	err := s.persistLocked(updated, s.answerHistory, s.resultHistory)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify()
	return nil
}

// AddAnswerHistory appends one answered-question entry and persists the
// full bundle. The entry's timestamp is assigned here.
func (s *ProgressStore) AddAnswerHistory(entry AnswerHistoryEntry) error {
	entry.Timestamp = time.Now().UnixMilli()

	s.mu.Lock()

	updated := make([]AnswerHistoryEntry, len(s.answerHistory), len(s.answerHistory)+1)
	copy(updated, s.answerHistory)
	updated = append(updated, entry)

	err := s.persistLocked(s.wrongAnswers, updated, s.resultHistory)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify()
	return nil
}

// AddResultHistory assigns the entry a fresh id and timestamp, appends it,
// and persists the full bundle. Called once per completed quiz session.
func (s *ProgressStore) AddResultHistory(entry ResultHistoryEntry) (ResultHistoryEntry, error) {
	s.mu.Lock()

	entry.ID = s.ids.next()
	entry.Timestamp = time.Now().UnixMilli()

	updated := make([]ResultHistoryEntry, len(s.resultHistory), len(s.resultHistory)+1)
	copy(updated, s.resultHistory)
	updated = append(updated, entry)

	err := s.persistLocked(s.wrongAnswers, s.answerHistory, updated)
	s.mu.Unlock()
	if err != nil {
		return ResultHistoryEntry{}, err
	}

	s.notify()
	return entry, nil
}

// WrongQuestionIDs returns the de-duplicated set of question ids ever
// answered wrong for the exam. Order is unspecified.
func (s *ProgressStore) WrongQuestionIDs(examID int64) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]bool)
	var ids []int64
	for _, wa := range s.wrongAnswers {
		if wa.ExamID != examID || seen[wa.QuestionID] {
			continue
		}
		seen[wa.QuestionID] = true
		ids = append(ids, wa.QuestionID)
	}
	return ids
}

// WrongAnswers returns a copy of the wrong-answer log.
func (s *ProgressStore) WrongAnswers() []WrongAnswer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]WrongAnswer, len(s.wrongAnswers))
	copy(out, s.wrongAnswers)
	return out
}

// AnswerHistory returns a copy of the answer log.
func (s *ProgressStore) AnswerHistory() []AnswerHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AnswerHistoryEntry, len(s.answerHistory))
	copy(out, s.answerHistory)
	return out
}

// ResultHistories returns all result entries for the exam, most recent
// first.
func (s *ProgressStore) ResultHistories(examID int64) []ResultHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ResultHistoryEntry
	for _, rh := range s.resultHistory {
		if rh.ExamID == examID {
			out = append(out, rh)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// ExamStats aggregates every result history for the exam. With no history
// it returns zeroed stats.
func (s *ProgressStore) ExamStats(examID int64) ExamStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats ExamStats
	var attempts int
	var totalTime int64
	for _, rh := range s.resultHistory {
		if rh.ExamID != examID {
			continue
		}
		attempts++
		stats.TotalAnswered += rh.TotalQuestions
		stats.CorrectAnswers += rh.CorrectAnswers
		totalTime += rh.TotalTime
	}
	if attempts == 0 {
		return ExamStats{}
	}
	stats.AverageTime = totalTime / int64(attempts)
	return stats
}

// ClearProgress purges all three logs and persists.
func (s *ProgressStore) ClearProgress() error {
	s.mu.Lock()
	err := s.persistLocked([]WrongAnswer{}, []AnswerHistoryEntry{}, []ResultHistoryEntry{})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify()
	return nil
}

// ClearProgressByExamID purges the exam's entries from all three logs and
// persists.
func (s *ProgressStore) ClearProgressByExamID(examID int64) error {
	s.mu.Lock()

	wrong := make([]WrongAnswer, 0, len(s.wrongAnswers))
	for _, wa := range s.wrongAnswers {
		if wa.ExamID != examID {
			wrong = append(wrong, wa)
		}
	}

	answers := make([]AnswerHistoryEntry, 0, len(s.answerHistory))
	for _, ah := range s.answerHistory {
		if ah.ExamID != examID {
			answers = append(answers, ah)
		}
	}

	results := make([]ResultHistoryEntry, 0, len(s.resultHistory))
	for _, rh := range s.resultHistory {
		if rh.ExamID != examID {
			results = append(results, rh)
		}
	}

	err := s.persistLocked(wrong, answers, results)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify()
	return nil
}

// persistLocked writes the full bundle through to storage and only then
// commits it in memory. Callers hold the write lock.
func (s *ProgressStore) persistLocked(wrong []WrongAnswer, answers []AnswerHistoryEntry, results []ResultHistoryEntry) error {
	doc := progressDocument{
		WrongAnswers:  wrong,
		AnswerHistory: answers,
		ResultHistory: results,
	}
	if err := s.storage.Save(KeyProgress, doc); err != nil {
		s.err = err
		return err
	}
	s.wrongAnswers = wrong
	s.answerHistory = answers
	s.resultHistory = results
	s.err = nil
	return nil
}
