package examtrainer

import (
	"testing"
)

func newTestProgressStore(t *testing.T) (*ProgressStore, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	store := NewProgressStore(storage)
	if err := store.Err(); err != nil {
		t.Fatalf("store loaded with error: %v", err)
	}
	return store, storage
}

func TestWrongQuestionIDsDeduplicates(t *testing.T) {
	store, _ := newTestProgressStore(t)

	// Question 7 answered wrong twice, question 8 once, question 9 in a
	// different exam.
	for _, qid := range []int64{7, 8, 7} {
		if err := store.AddWrongAnswer(1, qid); err != nil {
			t.Fatalf("AddWrongAnswer failed: %v", err)
		}
	}
	if err := store.AddWrongAnswer(2, 9); err != nil {
		t.Fatalf("AddWrongAnswer failed: %v", err)
	}

	ids := store.WrongQuestionIDs(1)
	if len(ids) != 2 {
		t.Fatalf("expected 2 distinct wrong question ids, got %v", ids)
	}
	got := map[int64]bool{}
	for _, id := range ids {
		got[id] = true
	}
	if !got[7] || !got[8] {
		t.Errorf("expected ids 7 and 8, got %v", ids)
	}

	// The raw log keeps every attempt.
	if n := len(store.WrongAnswers()); n != 4 {
		t.Errorf("expected 4 raw wrong-answer entries, got %d", n)
	}
}

func TestResultHistoriesMostRecentFirst(t *testing.T) {
	storage := newMemStorage()
	seed := progressDocument{
		WrongAnswers:  []WrongAnswer{},
		AnswerHistory: []AnswerHistoryEntry{},
		ResultHistory: []ResultHistoryEntry{
			{ID: 1, ExamID: 1, Timestamp: 100},
			{ID: 2, ExamID: 1, Timestamp: 300},
			{ID: 3, ExamID: 2, Timestamp: 400},
			{ID: 4, ExamID: 1, Timestamp: 200},
		},
	}
	if err := storage.Save(KeyProgress, seed); err != nil {
		t.Fatalf("seeding storage failed: %v", err)
	}

	store := NewProgressStore(storage)
	got := store.ResultHistories(1)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries for exam 1, got %d", len(got))
	}
	want := []int64{300, 200, 100}
	for i, ts := range want {
		if got[i].Timestamp != ts {
			t.Errorf("entry %d: expected timestamp %d, got %d", i, ts, got[i].Timestamp)
		}
	}
}

func TestAddResultHistoryAssignsIDAndTimestamp(t *testing.T) {
	store, _ := newTestProgressStore(t)

	first, err := store.AddResultHistory(ResultHistoryEntry{
		ExamID:         1,
		TotalQuestions: 10,
		CorrectAnswers: 8,
		TotalTime:      60000,
		Mode:           ModeRandom,
	})
	if err != nil {
		t.Fatalf("AddResultHistory failed: %v", err)
	}
	if first.ID == 0 || first.Timestamp == 0 {
		t.Errorf("expected id and timestamp assigned, got %+v", first)
	}

	second, err := store.AddResultHistory(ResultHistoryEntry{ExamID: 1})
	if err != nil {
		t.Fatalf("AddResultHistory failed: %v", err)
	}
	if second.ID == first.ID {
		t.Errorf("consecutive entries share id %d", first.ID)
	}
}

func TestExamStats(t *testing.T) {
	store, _ := newTestProgressStore(t)

	if stats := store.ExamStats(1); stats != (ExamStats{}) {
		t.Errorf("expected zero stats with no history, got %+v", stats)
	}

	entries := []ResultHistoryEntry{
		{ExamID: 1, TotalQuestions: 10, CorrectAnswers: 7, TotalTime: 40000},
		{ExamID: 1, TotalQuestions: 5, CorrectAnswers: 5, TotalTime: 20000},
		{ExamID: 2, TotalQuestions: 99, CorrectAnswers: 99, TotalTime: 999},
	}
	for _, e := range entries {
		if _, err := store.AddResultHistory(e); err != nil {
			t.Fatalf("AddResultHistory failed: %v", err)
		}
	}

	stats := store.ExamStats(1)
	if stats.TotalAnswered != 15 {
		t.Errorf("expected 15 total answered, got %d", stats.TotalAnswered)
	}
	if stats.CorrectAnswers != 12 {
		t.Errorf("expected 12 correct, got %d", stats.CorrectAnswers)
	}
	if stats.AverageTime != 30000 {
		t.Errorf("expected average time 30000, got %d", stats.AverageTime)
	}
}

func TestClearProgressByExamID(t *testing.T) {
	store, _ := newTestProgressStore(t)

	for _, examID := range []int64{1, 2} {
		if err := store.AddWrongAnswer(examID, 10); err != nil {
			t.Fatalf("AddWrongAnswer failed: %v", err)
		}
		if err := store.AddAnswerHistory(AnswerHistoryEntry{ExamID: examID, QuestionID: 10}); err != nil {
			t.Fatalf("AddAnswerHistory failed: %v", err)
		}
		if _, err := store.AddResultHistory(ResultHistoryEntry{ExamID: examID}); err != nil {
			t.Fatalf("AddResultHistory failed: %v", err)
		}
	}

	if err := store.ClearProgressByExamID(1); err != nil {
		t.Fatalf("ClearProgressByExamID failed: %v", err)
	}

	if got := store.WrongQuestionIDs(1); len(got) != 0 {
		t.Errorf("expected no wrong answers for exam 1, got %v", got)
	}
	if got := store.ResultHistories(1); len(got) != 0 {
		t.Errorf("expected no results for exam 1, got %v", got)
	}
	if got := store.WrongQuestionIDs(2); len(got) != 1 {
		t.Errorf("exam 2 wrong answers should survive, got %v", got)
	}
	if got := store.ResultHistories(2); len(got) != 1 {
		t.Errorf("exam 2 results should survive, got %v", got)
	}
}

func TestClearProgressPurgesAllLogs(t *testing.T) {
	store, storage := newTestProgressStore(t)

	store.AddWrongAnswer(1, 10)
	store.AddAnswerHistory(AnswerHistoryEntry{ExamID: 1, QuestionID: 10})
	store.AddResultHistory(ResultHistoryEntry{ExamID: 1})

	if err := store.ClearProgress(); err != nil {
		t.Fatalf("ClearProgress failed: %v", err)
	}
	if len(store.WrongAnswers()) != 0 || len(store.AnswerHistory()) != 0 {
		t.Error("expected all logs empty after ClearProgress")
	}

	// The purge is persisted, not just in-memory.
	reloaded := NewProgressStore(storage)
	if len(reloaded.WrongAnswers()) != 0 {
		t.Error("expected persisted logs empty after ClearProgress")
	}
}

func TestProgressFailedPersistLeavesLogsUnchanged(t *testing.T) {
	store, storage := newTestProgressStore(t)

	if err := store.AddWrongAnswer(1, 10); err != nil {
		t.Fatalf("AddWrongAnswer failed: %v", err)
	}

	storage.failSave = true
	if err := store.AddWrongAnswer(1, 11); err == nil {
		t.Fatal("expected AddWrongAnswer to fail when storage fails")
	}
	if store.Err() == nil {
		t.Error("expected recorded error after failed persist")
	}
	if got := store.WrongAnswers(); len(got) != 1 || got[0].QuestionID != 10 {
		t.Errorf("in-memory log changed after failed persist: %+v", got)
	}
}

func TestProgressBundlePersistsTogether(t *testing.T) {
	store, storage := newTestProgressStore(t)

	store.AddWrongAnswer(1, 10)
	store.AddAnswerHistory(AnswerHistoryEntry{ExamID: 1, QuestionID: 10, IsCorrect: false, TimeSpent: 1500})
	store.AddResultHistory(ResultHistoryEntry{ExamID: 1, TotalQuestions: 1})

	reloaded := NewProgressStore(storage)
	if len(reloaded.WrongAnswers()) != 1 {
		t.Error("wrong-answer log not persisted")
	}
	if got := reloaded.AnswerHistory(); len(got) != 1 || got[0].TimeSpent != 1500 {
		t.Errorf("answer history not persisted: %+v", got)
	}
	if len(reloaded.ResultHistories(1)) != 1 {
		t.Error("result history not persisted")
	}
}
