package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"examtrainer"
	"examtrainer/pkg/logger"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	hasData, err := s.storage.HasData()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"hasData": hasData,
	})
}

func (s *Server) handleExams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"exams": s.exams.Exams()})

	case http.MethodPost:
		var draft examtrainer.ExamDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		exam, err := s.exams.AddExam(draft)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, exam)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleExam routes /exams/{id} and its subresources.
func (s *Server) handleExam(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/exams/")
	parts := strings.Split(path, "/")

	examID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		s.handleExamByID(w, r, examID)
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "genres":
			s.handleAddGenre(w, r, examID)
			return
		case "questions":
			s.handleQuestions(w, r, examID)
			return
		case "export":
			s.handleExport(w, r, examID)
			return
		case "select":
			s.handleSelect(w, r, examID)
			return
		}
	}

	http.NotFound(w, r)
}

func (s *Server) handleExamByID(w http.ResponseWriter, r *http.Request, examID int64) {
	switch r.Method {
	case http.MethodGet:
		exam, err := s.exams.Exam(examID)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, exam)

	case http.MethodPut:
		var exam examtrainer.Exam
		if err := json.NewDecoder(r.Body).Decode(&exam); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		exam.ID = examID
		if err := s.exams.UpdateExam(exam); err != nil {
			if errors.Is(err, examtrainer.ErrExamNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, exam)

	case http.MethodDelete:
		if err := s.exams.DeleteExam(examID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleAddGenre(w http.ResponseWriter, r *http.Request, examID int64) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var draft examtrainer.GenreDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil || draft.Name == "" {
		writeError(w, http.StatusBadRequest, "genre name is required")
		return
	}

	genre, err := s.exams.AddGenre(examID, draft)
	if err != nil {
		if errors.Is(err, examtrainer.ErrExamNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, genre)
}

// handleQuestions adds a question on POST and returns a random sample on
// GET (?count=&genre=).
func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request, examID int64) {
	switch r.Method {
	case http.MethodPost:
		var draft examtrainer.QuestionDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if reason, ok := validQuestionDraft(draft); !ok {
			writeError(w, http.StatusBadRequest, reason)
			return
		}
		question, err := s.exams.AddQuestion(examID, draft)
		if err != nil {
			if errors.Is(err, examtrainer.ErrExamNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, question)

	case http.MethodGet:
		count, err := strconv.Atoi(r.URL.Query().Get("count"))
		if err != nil || count <= 0 {
			count = 10
		}
		genre := r.URL.Query().Get("genre")
		questions := s.exams.RandomQuestions(examID, count, genre)
		writeJSON(w, http.StatusOK, map[string]any{"questions": questions})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// validQuestionDraft applies the form-boundary rules: trimmed non-empty
// text, 2-8 choices each with text, at least one but not every choice
// correct.
func validQuestionDraft(draft examtrainer.QuestionDraft) (string, bool) {
	if strings.TrimSpace(draft.Question) == "" {
		return "question text is required", false
	}
	if len(draft.Choices) < 2 || len(draft.Choices) > 8 {
		return "a question needs between 2 and 8 choices", false
	}
	correct := 0
	for _, c := range draft.Choices {
		if strings.TrimSpace(c.Choice) == "" {
			return "every choice needs text", false
		}
		if c.IsCorrect {
			correct++
		}
	}
	if correct == 0 {
		return "at least one choice must be correct", false
	}
	if correct == len(draft.Choices) {
		return "not every choice may be correct", false
	}
	return "", true
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, examID int64) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	exam, err := s.exams.Exam(examID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	token, err := examtrainer.ExportExam(exam)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, examID int64) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.exams.SetCurrentExam(examID)
	if err := s.exams.SetLastExamID(examID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "selected"})
}

type importRequest struct {
	Token string `json:"token"`
}

// handleImport decodes and validates a token without committing anything,
// returning the confirmation preview.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	exam, err := examtrainer.ImportExam(req.Token)
	if err != nil {
		var vErr *examtrainer.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusUnprocessableEntity, vErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":          exam.Name,
		"detail":        exam.Detail,
		"questionCount": len(exam.Questions),
		"genreCount":    len(exam.Genres),
	})
}

// handleImportConfirm commits a previously previewed token through
// AddExam, so the imported exam always gets a fresh id.
func (s *Server) handleImportConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	imported, err := examtrainer.ImportExam(req.Token)
	if err != nil {
		var vErr *examtrainer.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusUnprocessableEntity, vErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	created, err := s.exams.AddExam(examtrainer.ExamDraft{
		Name:   imported.Name,
		Detail: imported.Detail,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	created.Genres = imported.Genres
	created.Questions = imported.Questions
	if err := s.exams.UpdateExam(created); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	examID, ok := examIDParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": s.progress.ResultHistories(examID),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	examID, ok := examIDParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.progress.ExamStats(examID))
}

func (s *Server) handleClearProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var err error
	if raw := r.URL.Query().Get("examId"); raw != "" {
		examID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid examId")
			return
		}
		err = s.progress.ClearProgressByExamID(examID)
	} else {
		err = s.progress.ClearProgress()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func examIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	examID, err := strconv.ParseInt(r.URL.Query().Get("examId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "examId query parameter is required")
		return 0, false
	}
	return examID, true
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	type modelInfo struct {
		Type        examtrainer.ModelType `json:"type"`
		DisplayName string                `json:"displayName"`
		Description string                `json:"description"`
	}

	models := make([]modelInfo, 0, len(examtrainer.AvailableModels()))
	for _, mt := range examtrainer.AvailableModels() {
		models = append(models, modelInfo{
			Type:        mt,
			DisplayName: examtrainer.ModelDisplayName(mt),
			Description: examtrainer.ModelDescription(mt),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

type settingsPatchRequest struct {
	ModelType     *examtrainer.ModelType `json:"modelType"`
	APIKey        *string                `json:"apiKey"`
	DefaultPrompt *string                `json:"defaultPrompt"`
}

func (s *Server) handleAISettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.ai.Settings())

	case http.MethodPut:
		var req settingsPatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		patch := examtrainer.AISettingsPatch{
			ModelType:     req.ModelType,
			APIKey:        req.APIKey,
			DefaultPrompt: req.DefaultPrompt,
		}
		if err := s.ai.UpdateSettings(patch); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.ai.Settings())

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type generateRequest struct {
	ExamName string   `json:"examName"`
	Keywords []string `json:"keywords"`
	// ExamID, when set, commits the generated questions into that exam.
	ExamID int64 `json:"examId"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExamName == "" {
		writeError(w, http.StatusBadRequest, "examName is required")
		return
	}

	result, err := s.ai.GenerateQuestions(r.Context(), req.ExamName, req.Keywords)
	if err != nil {
		var aiErr *examtrainer.AIError
		if errors.As(err, &aiErr) {
			writeJSON(w, aiErrorStatus(aiErr.Code), map[string]string{
				"code":  string(aiErr.Code),
				"error": aiErr.Message,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.ExamID == 0 {
		writeJSON(w, http.StatusOK, result)
		return
	}

	// Map the generated questions into store drafts (is_correct becomes
	// isCorrect here) and commit them to the target exam.
	added := make([]examtrainer.Question, 0, len(result.Questions))
	for _, gq := range result.Questions {
		question, err := s.exams.AddQuestion(req.ExamID, generatedToDraft(gq))
		if err != nil {
			if errors.Is(err, examtrainer.ErrExamNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		added = append(added, question)
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": added})
}

// generatedToDraft converts a provider question to a store draft. Choice
// ids are reassigned positionally; the provider's string ids only need to
// be unique within its own response.
func generatedToDraft(gq examtrainer.GeneratedQuestion) examtrainer.QuestionDraft {
	choices := make([]examtrainer.Choice, 0, len(gq.Choices))
	for i, gc := range gq.Choices {
		choices = append(choices, examtrainer.Choice{
			ID:        int64(i + 1),
			Choice:    gc.Choice,
			IsCorrect: gc.IsCorrect,
		})
	}
	return examtrainer.QuestionDraft{
		Question: gq.Question,
		Detail:   gq.Detail,
		Genre:    gq.Genre,
		Choices:  choices,
	}
}

func aiErrorStatus(code examtrainer.AIErrorCode) int {
	switch code {
	case examtrainer.ErrCodeAPIKeyInvalid:
		return http.StatusUnauthorized
	case examtrainer.ErrCodeRateLimit:
		return http.StatusTooManyRequests
	case examtrainer.ErrCodeInvalidModel:
		return http.StatusBadRequest
	case examtrainer.ErrCodeInvalidResponse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
