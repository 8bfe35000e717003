package examtrainer

import (
	"errors"
	"testing"
)

func newTestExamStore(t *testing.T) (*ExamStore, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	store := NewExamStore(storage)
	if err := store.Err(); err != nil {
		t.Fatalf("store loaded with error: %v", err)
	}
	return store, storage
}

func TestAddExamAssignsUniqueIDs(t *testing.T) {
	store, _ := newTestExamStore(t)

	seen := make(map[int64]bool)
	for i := 0; i < 50; i++ {
		exam, err := store.AddExam(ExamDraft{Name: "exam"})
		if err != nil {
			t.Fatalf("AddExam failed: %v", err)
		}
		if seen[exam.ID] {
			t.Fatalf("duplicate exam id %d", exam.ID)
		}
		seen[exam.ID] = true

		if exam.Genres == nil || len(exam.Genres) != 0 {
			t.Errorf("new exam should have empty genres, got %v", exam.Genres)
		}
		if exam.Questions == nil || len(exam.Questions) != 0 {
			t.Errorf("new exam should have empty questions, got %v", exam.Questions)
		}
	}
}

func TestUpdateExamRoundTrip(t *testing.T) {
	store, storage := newTestExamStore(t)

	exam, err := store.AddExam(ExamDraft{Name: "before", Detail: "old"})
	if err != nil {
		t.Fatalf("AddExam failed: %v", err)
	}

	exam.Name = "after"
	exam.Detail = "new detail"
	exam.Genres = []Genre{{ID: 1, Name: "signs"}}
	if err := store.UpdateExam(exam); err != nil {
		t.Fatalf("UpdateExam failed: %v", err)
	}

	// A fresh store over the same storage must see exactly the updated
	// exam.
	reloaded := NewExamStore(storage)
	got, err := reloaded.Exam(exam.ID)
	if err != nil {
		t.Fatalf("Exam lookup after reload failed: %v", err)
	}
	if got.Name != "after" || got.Detail != "new detail" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Genres) != 1 || got.Genres[0].Name != "signs" {
		t.Errorf("genres not round-tripped: %+v", got.Genres)
	}
}

func TestUpdateExamNotFound(t *testing.T) {
	store, _ := newTestExamStore(t)

	if _, err := store.AddExam(ExamDraft{Name: "only"}); err != nil {
		t.Fatalf("AddExam failed: %v", err)
	}
	before := store.Exams()

	err := store.UpdateExam(Exam{ID: 999, Name: "ghost"})
	if !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}
	if !errors.Is(store.Err(), ErrExamNotFound) {
		t.Errorf("expected recorded error, got %v", store.Err())
	}

	after := store.Exams()
	if len(after) != len(before) || after[0].Name != before[0].Name {
		t.Error("collection changed by a failed update")
	}
}

func TestFailedPersistLeavesStateUnchanged(t *testing.T) {
	store, storage := newTestExamStore(t)

	exam, err := store.AddExam(ExamDraft{Name: "kept"})
	if err != nil {
		t.Fatalf("AddExam failed: %v", err)
	}

	storage.failSave = true
	if _, err := store.AddExam(ExamDraft{Name: "lost"}); err == nil {
		t.Fatal("expected AddExam to fail when storage fails")
	}
	if store.Err() == nil {
		t.Error("expected recorded error after failed persist")
	}

	exams := store.Exams()
	if len(exams) != 1 || exams[0].ID != exam.ID {
		t.Errorf("in-memory state changed after failed persist: %+v", exams)
	}

	// The next successful mutation clears the recorded error.
	storage.failSave = false
	if _, err := store.AddExam(ExamDraft{Name: "second"}); err != nil {
		t.Fatalf("AddExam failed: %v", err)
	}
	if store.Err() != nil {
		t.Errorf("expected recorded error cleared, got %v", store.Err())
	}
}

func TestDeleteExamClearsCurrentSelection(t *testing.T) {
	store, _ := newTestExamStore(t)

	exam, _ := store.AddExam(ExamDraft{Name: "target"})
	store.SetCurrentExam(exam.ID)
	if _, ok := store.CurrentExam(); !ok {
		t.Fatal("expected a current exam after SetCurrentExam")
	}

	if err := store.DeleteExam(exam.ID); err != nil {
		t.Fatalf("DeleteExam failed: %v", err)
	}
	if _, ok := store.CurrentExam(); ok {
		t.Error("expected current selection cleared after deleting it")
	}
	if len(store.Exams()) != 0 {
		t.Error("expected empty collection after delete")
	}
}

func TestAddGenreAndQuestion(t *testing.T) {
	store, _ := newTestExamStore(t)

	exam, _ := store.AddExam(ExamDraft{Name: "driving"})

	genre, err := store.AddGenre(exam.ID, GenreDraft{Name: "signs"})
	if err != nil {
		t.Fatalf("AddGenre failed: %v", err)
	}
	if genre.ID == 0 {
		t.Error("expected genre to get an id")
	}

	question, err := store.AddQuestion(exam.ID, QuestionDraft{
		Question: "What does a red octagon mean?",
		Genre:    "signs",
		Choices: []Choice{
			{ID: 1, Choice: "Stop", IsCorrect: true},
			{ID: 2, Choice: "Yield"},
		},
	})
	if err != nil {
		t.Fatalf("AddQuestion failed: %v", err)
	}
	if question.ID == 0 {
		t.Error("expected question to get an id")
	}
	if question.ID == genre.ID {
		t.Error("genre and question ids collide")
	}

	got, err := store.Exam(exam.ID)
	if err != nil {
		t.Fatalf("Exam lookup failed: %v", err)
	}
	if len(got.Genres) != 1 || len(got.Questions) != 1 {
		t.Errorf("nested collections not updated: %+v", got)
	}

	if _, err := store.AddGenre(999, GenreDraft{Name: "orphan"}); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("expected ErrExamNotFound for unknown exam, got %v", err)
	}
}

func TestRandomQuestions(t *testing.T) {
	store, _ := newTestExamStore(t)

	exam, _ := store.AddExam(ExamDraft{Name: "sampling"})
	for i := 0; i < 10; i++ {
		genre := "even"
		if i%2 == 1 {
			genre = "odd"
		}
		if _, err := store.AddQuestion(exam.ID, QuestionDraft{
			Question: "q",
			Genre:    genre,
			Choices: []Choice{
				{ID: 1, Choice: "a", IsCorrect: true},
				{ID: 2, Choice: "b"},
			},
		}); err != nil {
			t.Fatalf("AddQuestion failed: %v", err)
		}
	}

	t.Run("exact count of distinct questions", func(t *testing.T) {
		got := store.RandomQuestions(exam.ID, 4, "")
		if len(got) != 4 {
			t.Fatalf("expected 4 questions, got %d", len(got))
		}
		seen := make(map[int64]bool)
		for _, q := range got {
			if seen[q.ID] {
				t.Errorf("question %d returned twice in one call", q.ID)
			}
			seen[q.ID] = true
		}
	})

	t.Run("count above available returns all", func(t *testing.T) {
		got := store.RandomQuestions(exam.ID, 100, "")
		if len(got) != 10 {
			t.Errorf("expected all 10 questions, got %d", len(got))
		}
	})

	t.Run("genre filter applies first", func(t *testing.T) {
		got := store.RandomQuestions(exam.ID, 100, "even")
		if len(got) != 5 {
			t.Fatalf("expected 5 even questions, got %d", len(got))
		}
		for _, q := range got {
			if q.Genre != "even" {
				t.Errorf("question %d has genre %q", q.ID, q.Genre)
			}
		}
	})

	t.Run("unknown exam yields nothing", func(t *testing.T) {
		if got := store.RandomQuestions(999, 5, ""); len(got) != 0 {
			t.Errorf("expected no questions, got %d", len(got))
		}
	})

	t.Run("negative count yields nothing", func(t *testing.T) {
		if got := store.RandomQuestions(exam.ID, -1, ""); len(got) != 0 {
			t.Errorf("expected no questions for a negative count, got %d", len(got))
		}
	})
}

func TestQuestionsKeepInsertionOrder(t *testing.T) {
	store, _ := newTestExamStore(t)

	exam, _ := store.AddExam(ExamDraft{Name: "ordered"})
	var added []int64
	for i := 0; i < 6; i++ {
		genre := "a"
		if i%2 == 1 {
			genre = "b"
		}
		q, err := store.AddQuestion(exam.ID, QuestionDraft{
			Question: "q",
			Genre:    genre,
			Choices: []Choice{
				{ID: 1, Choice: "x", IsCorrect: true},
				{ID: 2, Choice: "y"},
			},
		})
		if err != nil {
			t.Fatalf("AddQuestion failed: %v", err)
		}
		added = append(added, q.ID)
	}

	got := store.Questions(exam.ID, "")
	if len(got) != len(added) {
		t.Fatalf("expected %d questions, got %d", len(added), len(got))
	}
	for i, q := range got {
		if q.ID != added[i] {
			t.Fatalf("position %d: got question %d, want %d", i, q.ID, added[i])
		}
	}

	filtered := store.Questions(exam.ID, "b")
	if len(filtered) != 3 {
		t.Fatalf("expected 3 genre-b questions, got %d", len(filtered))
	}
	for i := 1; i < len(filtered); i++ {
		if filtered[i].ID < filtered[i-1].ID {
			t.Fatal("genre filter disturbed insertion order")
		}
	}

	if got := store.Questions(999, ""); len(got) != 0 {
		t.Errorf("expected no questions for an unknown exam, got %d", len(got))
	}
}

func TestSetLastExamIDPersists(t *testing.T) {
	store, storage := newTestExamStore(t)

	exam, _ := store.AddExam(ExamDraft{Name: "resume"})
	if err := store.SetLastExamID(exam.ID); err != nil {
		t.Fatalf("SetLastExamID failed: %v", err)
	}

	reloaded := NewExamStore(storage)
	if reloaded.LastExamID() != exam.ID {
		t.Errorf("expected last exam id %d, got %d", exam.ID, reloaded.LastExamID())
	}
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	store, _ := newTestExamStore(t)

	notified := 0
	unsubscribe := store.Subscribe(func() { notified++ })

	if _, err := store.AddExam(ExamDraft{Name: "observed"}); err != nil {
		t.Fatalf("AddExam failed: %v", err)
	}
	if notified != 1 {
		t.Fatalf("expected one notification after AddExam, got %d", notified)
	}

	unsubscribe()
	if _, err := store.AddExam(ExamDraft{Name: "unobserved"}); err != nil {
		t.Fatalf("AddExam failed: %v", err)
	}
	if notified != 1 {
		t.Errorf("expected no notification after unsubscribe, got %d", notified)
	}
}
