package main

import (
	"encoding/json"
	"net/http"
	"time"

	"examtrainer"
	"examtrainer/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionName = "quiz-session"

// QuizSessionState is the in-flight quiz attempt carried in the session
// cookie between requests.
type QuizSessionState struct {
	AttemptID   string               `json:"attempt_id"`
	ExamID      int64                `json:"exam_id"`
	Mode        examtrainer.QuizMode `json:"mode"`
	QuestionIDs []int64              `json:"question_ids"`
	CurrentQ    int                  `json:"current_q"`
	Correct     int                  `json:"correct"`
	StartedAt   int64                `json:"started_at"` // unix ms
	ShownAt     int64                `json:"shown_at"`   // unix ms, current question
}

// questionView is a question as shown to the quiz taker: choices without
// their isCorrect flags.
type questionView struct {
	ID       int64        `json:"id"`
	Question string       `json:"question"`
	Genre    string       `json:"genre"`
	Choices  []choiceView `json:"choices"`
}

type choiceView struct {
	ID     int64  `json:"id"`
	Choice string `json:"choice"`
}

func viewOf(q examtrainer.Question) questionView {
	v := questionView{ID: q.ID, Question: q.Question, Genre: q.Genre}
	for _, c := range q.Choices {
		v.Choices = append(v.Choices, choiceView{ID: c.ID, Choice: c.Choice})
	}
	return v
}

type quizStartRequest struct {
	ExamID int64                `json:"examId"`
	Mode   examtrainer.QuizMode `json:"mode"`
	Count  int                  `json:"count"`
	Genre  string               `json:"genre"`
	// Ordered keeps insertion order for mode "all" instead of shuffling.
	Ordered bool `json:"ordered"`
}

func (s *Server) handleQuizStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req quizStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mode == "" {
		req.Mode = examtrainer.ModeRandom
	}
	if req.Count <= 0 {
		req.Count = 10
	}

	questions := examtrainer.SelectQuestions(s.exams, s.progress, req.ExamID, req.Mode, req.Count, req.Genre, req.Ordered)
	if len(questions) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no questions available for this quiz")
		return
	}

	ids := make([]int64, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	now := time.Now().UnixMilli()
	state := QuizSessionState{
		AttemptID:   uuid.NewString(),
		ExamID:      req.ExamID,
		Mode:        req.Mode,
		QuestionIDs: ids,
		StartedAt:   now,
		ShownAt:     now,
	}

	session, _ := s.store.Get(r, sessionName)
	session.Values["quiz"] = state
	if err := session.Save(r, w); err != nil {
		logger.Log.Error("session save failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"attemptId":      state.AttemptID,
		"totalQuestions": len(ids),
		"question":       viewOf(questions[0]),
	})
}

type quizAnswerRequest struct {
	SelectedIDs []int64 `json:"selectedIds"`
}

func (s *Server) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req quizAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Submit stays disabled on an empty selection in the UI; reject it
	// here too so the scoring contract never sees an empty set.
	if len(req.SelectedIDs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one choice must be selected")
		return
	}

	session, _ := s.store.Get(r, sessionName)
	state, ok := session.Values["quiz"].(QuizSessionState)
	if !ok || state.CurrentQ >= len(state.QuestionIDs) {
		writeError(w, http.StatusConflict, "no quiz in progress")
		return
	}

	question, ok := s.findQuestion(state.ExamID, state.QuestionIDs[state.CurrentQ])
	if !ok {
		writeError(w, http.StatusConflict, "question no longer exists")
		return
	}

	now := time.Now().UnixMilli()
	timeSpent := now - state.ShownAt
	correct := examtrainer.IsCorrectSelection(question, req.SelectedIDs)

	if err := s.progress.AddAnswerHistory(examtrainer.AnswerHistoryEntry{
		ExamID:     state.ExamID,
		QuestionID: question.ID,
		IsCorrect:  correct,
		TimeSpent:  timeSpent,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !correct {
		if err := s.progress.AddWrongAnswer(state.ExamID, question.ID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if correct {
		state.Correct++
	}
	state.CurrentQ++
	state.ShownAt = now

	session.Values["quiz"] = state
	if err := session.Save(r, w); err != nil {
		logger.Log.Error("session save failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}

	resp := map[string]any{
		"correct":          correct,
		"correctChoiceIds": question.CorrectChoiceIDs(),
		"detail":           question.Detail,
		"finished":         state.CurrentQ >= len(state.QuestionIDs),
	}
	if state.CurrentQ < len(state.QuestionIDs) {
		if next, ok := s.findQuestion(state.ExamID, state.QuestionIDs[state.CurrentQ]); ok {
			resp["question"] = viewOf(next)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuizFinish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	session, _ := s.store.Get(r, sessionName)
	state, ok := session.Values["quiz"].(QuizSessionState)
	if !ok {
		writeError(w, http.StatusConflict, "no quiz in progress")
		return
	}
	if state.CurrentQ < len(state.QuestionIDs) {
		writeError(w, http.StatusConflict, "quiz is not finished")
		return
	}

	entry, err := s.progress.AddResultHistory(examtrainer.ResultHistoryEntry{
		ExamID:         state.ExamID,
		TotalQuestions: len(state.QuestionIDs),
		CorrectAnswers: state.Correct,
		TotalTime:      time.Now().UnixMilli() - state.StartedAt,
		Mode:           state.Mode,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	delete(session.Values, "quiz")
	if err := session.Save(r, w); err != nil {
		logger.Log.Error("session save failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) findQuestion(examID, questionID int64) (examtrainer.Question, bool) {
	exam, err := s.exams.Exam(examID)
	if err != nil {
		return examtrainer.Question{}, false
	}
	for _, q := range exam.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return examtrainer.Question{}, false
}
