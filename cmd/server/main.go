package main

import (
	"encoding/gob"
	"net/http"

	"examtrainer"
	"examtrainer/pkg/logger"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Server holds the stores and session state shared by all handlers.
type Server struct {
	exams    *examtrainer.ExamStore
	progress *examtrainer.ProgressStore
	ai       *examtrainer.AIStore
	storage  *examtrainer.SQLiteStorage
	store    *sessions.CookieStore
}

func init() {
	gob.Register(QuizSessionState{})
}

func main() {
	cfg, err := LoadConfig(".")
	if err != nil {
		panic(err)
	}

	logger.Init(cfg.Server.Mode)
	defer logger.Log.Sync()

	if cfg.Server.Mode == "debug" {
		examtrainer.SetVerbose(true)
	}

	storage, err := examtrainer.OpenStorage(cfg.Database.Path)
	if err != nil {
		logger.Log.Fatal("failed to open storage", zap.Error(err))
	}
	defer storage.Close()

	hasData, err := storage.HasData()
	if err != nil {
		logger.Log.Fatal("failed to inspect storage", zap.Error(err))
	}
	if !hasData {
		if err := storage.InitializeStorage(); err != nil {
			logger.Log.Fatal("failed to initialize storage", zap.Error(err))
		}
		logger.Log.Info("initialized empty document store", zap.String("path", cfg.Database.Path))
	}

	examStore := examtrainer.NewExamStore(storage)
	if err := examStore.Err(); err != nil {
		logger.Log.Warn("exam store loaded with error", zap.Error(err))
	}
	progressStore := examtrainer.NewProgressStore(storage)
	if err := progressStore.Err(); err != nil {
		logger.Log.Warn("progress store loaded with error", zap.Error(err))
	}
	aiStore := examtrainer.NewAIStore(storage)
	aiStore.LogDir = cfg.AI.LogDir

	if cfg.AI.OllamaBaseURL != "" {
		baseURL := cfg.AI.OllamaBaseURL
		aiStore.SetClientFactory(func(modelType examtrainer.ModelType, apiKey string) (examtrainer.AIClient, error) {
			if modelType == examtrainer.ModelOllama {
				client := examtrainer.NewOllamaClient(apiKey)
				client.BaseURL = baseURL
				return client, nil
			}
			return examtrainer.NewClient(modelType, apiKey)
		})
	}

	secret := cfg.Session.Secret
	if secret == "" {
		logger.Log.Warn("session.secret is not set, using an insecure default")
		secret = "examtrainer-dev-secret"
	}

	server := &Server{
		exams:    examStore,
		progress: progressStore,
		ai:       aiStore,
		storage:  storage,
		store:    sessions.NewCookieStore([]byte(secret)),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/exams", server.handleExams)
	mux.HandleFunc("/exams/", server.handleExam)
	mux.HandleFunc("/import", server.handleImport)
	mux.HandleFunc("/import/confirm", server.handleImportConfirm)
	mux.HandleFunc("/quiz/start", server.handleQuizStart)
	mux.HandleFunc("/quiz/answer", server.handleQuizAnswer)
	mux.HandleFunc("/quiz/finish", server.handleQuizFinish)
	mux.HandleFunc("/progress/results", server.handleResults)
	mux.HandleFunc("/progress/stats", server.handleStats)
	mux.HandleFunc("/progress/clear", server.handleClearProgress)
	mux.HandleFunc("/ai/models", server.handleModels)
	mux.HandleFunc("/ai/settings", server.handleAISettings)
	mux.HandleFunc("/ai/generate", server.handleGenerate)

	logger.Log.Info("starting server", zap.String("port", cfg.Server.Port))
	if err := http.ListenAndServe(":"+cfg.Server.Port, mux); err != nil {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}
