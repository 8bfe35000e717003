package examtrainer

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// ErrExamNotFound is recorded when an operation targets an exam id absent
// from the collection.
var ErrExamNotFound = errors.New("exam not found")

// ExamStore owns the exam collection. In-memory state is the single source
// of truth after load; every mutation persists the entire updated
// collection before the in-memory commit, so a failed write leaves the
// store exactly as it was. Subscribers are notified after each committed
// mutation, outside the critical section.
type ExamStore struct {
	Notifier

	mu      sync.RWMutex
	storage Storage
	ids     idGenerator

	exams         []Exam
	currentExamID int64
	lastExamID    int64
	err           error
}

// NewExamStore creates a store bound to storage and loads the persisted
// collection. Load failures are recorded, not returned; the store starts
// empty and usable.
func NewExamStore(storage Storage) *ExamStore {
	s := &ExamStore{storage: storage}
	s.LoadExams()
	return s
}

// LoadExams replaces in-memory state from storage. Fails soft: on error the
// current state is kept and the error is recorded.
func (s *ExamStore) LoadExams() error {
	var doc examDocument
	_, err := s.storage.Load(KeyExams, &doc)

	var lastID int64
	if err == nil {
		_, err = s.storage.Load(KeyLastExamID, &lastID)
	}

	s.mu.Lock()
	if err != nil {
		s.err = err
		s.mu.Unlock()
		return err
	}
	s.exams = doc.Exam
	s.lastExamID = lastID
	s.err = nil
	s.mu.Unlock()

	s.notify()
	return nil
}

// Exams returns a copy of the exam collection.
func (s *ExamStore) Exams() []Exam {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Exam, len(s.exams))
	copy(out, s.exams)
	return out
}

// Exam returns the exam with the given id.
func (s *ExamStore) Exam(examID int64) (Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.findLocked(examID); ok {
		return e, nil
	}
	return Exam{}, fmt.Errorf("%w: %d", ErrExamNotFound, examID)
}

// Err returns the error recorded by the most recent failed operation, or
// nil if the last operation succeeded.
func (s *ExamStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// AddExam assigns a fresh id, appends the new exam with empty genres and
// questions, and persists. Returns the created exam.
func (s *ExamStore) AddExam(draft ExamDraft) (Exam, error) {
	s.mu.Lock()

	exam := Exam{
		ID:        s.ids.next(),
		Name:      draft.Name,
		Detail:    draft.Detail,
		Genres:    []Genre{},
		Questions: []Question{},
	}

	updated := make([]Exam, len(s.exams), len(s.exams)+1)
	copy(updated, s.exams)
	updated = append(updated, exam)

	if err := s.persistLocked(updated); err != nil {
		s.mu.Unlock()
		return Exam{}, err
	}
	s.mu.Unlock()

	s.notify()
	return exam, nil
}

// UpdateExam replaces the stored exam with the same id in full (no field
// merge) and persists. An unknown id records ErrExamNotFound and leaves the
// collection unchanged.
func (s *ExamStore) UpdateExam(exam Exam) error {
	s.mu.Lock()
	if err := s.updateLocked(exam); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *ExamStore) updateLocked(exam Exam) error {
	index := -1
	for i, e := range s.exams {
		if e.ID == exam.ID {
			index = i
			break
		}
	}
	if index == -1 {
		err := fmt.Errorf("%w: %d", ErrExamNotFound, exam.ID)
		s.err = err
		return err
	}

	updated := make([]Exam, len(s.exams))
	copy(updated, s.exams)
	updated[index] = exam

	return s.persistLocked(updated)
}

// DeleteExam filters the exam out of the collection and persists. If it was
// the current selection, the selection is cleared.
func (s *ExamStore) DeleteExam(examID int64) error {
	s.mu.Lock()

	updated := make([]Exam, 0, len(s.exams))
	for _, e := range s.exams {
		if e.ID != examID {
			updated = append(updated, e)
		}
	}

	if err := s.persistLocked(updated); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.currentExamID == examID {
		s.currentExamID = 0
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// AddGenre appends a genre with a fresh id to the owning exam.
func (s *ExamStore) AddGenre(examID int64, draft GenreDraft) (Genre, error) {
	s.mu.Lock()

	exam, ok := s.findLocked(examID)
	if !ok {
		err := fmt.Errorf("%w: %d", ErrExamNotFound, examID)
		s.err = err
		s.mu.Unlock()
		return Genre{}, err
	}

	genre := Genre{ID: s.ids.next(), Name: draft.Name}

	updated := exam
	updated.Genres = make([]Genre, len(exam.Genres), len(exam.Genres)+1)
	copy(updated.Genres, exam.Genres)
	updated.Genres = append(updated.Genres, genre)

	if err := s.updateLocked(updated); err != nil {
		s.mu.Unlock()
		return Genre{}, err
	}
	s.mu.Unlock()

	s.notify()
	return genre, nil
}

// AddQuestion appends a question with a fresh id to the owning exam. The
// draft arrives pre-validated from the form layer.
func (s *ExamStore) AddQuestion(examID int64, draft QuestionDraft) (Question, error) {
	s.mu.Lock()

	exam, ok := s.findLocked(examID)
	if !ok {
		err := fmt.Errorf("%w: %d", ErrExamNotFound, examID)
		s.err = err
		s.mu.Unlock()
		return Question{}, err
	}

	question := Question{
		ID:       s.ids.next(),
		Question: draft.Question,
		Detail:   draft.Detail,
		Genre:    draft.Genre,
		Choices:  draft.Choices,
	}

	updated := exam
	updated.Questions = make([]Question, len(exam.Questions), len(exam.Questions)+1)
	copy(updated.Questions, exam.Questions)
	updated.Questions = append(updated.Questions, question)

	if err := s.updateLocked(updated); err != nil {
		s.mu.Unlock()
		return Question{}, err
	}
	s.mu.Unlock()

	s.notify()
	return question, nil
}

// Questions returns a copy of the exam's questions in insertion order,
// filtered by genre when genre is non-empty. An unknown exam id yields an
// empty slice.
func (s *ExamStore) Questions(examID int64, genre string) []Question {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exam, ok := s.findLocked(examID)
	if !ok {
		return nil
	}

	out := make([]Question, 0, len(exam.Questions))
	for _, q := range exam.Questions {
		if genre != "" && q.Genre != genre {
			continue
		}
		out = append(out, q)
	}
	return out
}

// RandomQuestions returns up to count distinct questions from the exam,
// filtered by genre when genre is non-empty, in shuffled order.
func (s *ExamStore) RandomQuestions(examID int64, count int, genre string) []Question {
	shuffled := s.Questions(examID, genre)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if count < 0 {
		count = 0
	}
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

// SetLastExamID persists the resume-last-exam pointer under its own key.
func (s *ExamStore) SetLastExamID(examID int64) error {
	s.mu.Lock()
	if err := s.storage.Save(KeyLastExamID, examID); err != nil {
		s.err = err
		s.mu.Unlock()
		return err
	}
	s.lastExamID = examID
	s.err = nil
	s.mu.Unlock()

	s.notify()
	return nil
}

// LastExamID returns the resume pointer, 0 when none is set.
func (s *ExamStore) LastExamID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastExamID
}

// SetCurrentExam marks the working exam selection. Unknown ids clear it.
func (s *ExamStore) SetCurrentExam(examID int64) {
	s.mu.Lock()
	if _, ok := s.findLocked(examID); ok {
		s.currentExamID = examID
	} else {
		s.currentExamID = 0
	}
	s.mu.Unlock()

	s.notify()
}

// CurrentExam returns the selected exam, or ok=false when none is selected.
func (s *ExamStore) CurrentExam() (Exam, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentExamID == 0 {
		return Exam{}, false
	}
	return s.findLocked(s.currentExamID)
}

func (s *ExamStore) findLocked(examID int64) (Exam, bool) {
	for _, e := range s.exams {
		if e.ID == examID {
			return e, true
		}
	}
	return Exam{}, false
}

// persistLocked writes the full collection through to storage and only then
// commits it in memory. Callers hold the write lock and notify after
// releasing it.
func (s *ExamStore) persistLocked(exams []Exam) error {
	if err := s.storage.Save(KeyExams, examDocument{Exam: exams}); err != nil {
		s.err = err
		return err
	}
	s.exams = exams
	s.err = nil
	return nil
}
