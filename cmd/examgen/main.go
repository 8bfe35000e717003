package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"examtrainer"
)

func main() {
	var (
		examName = flag.String("exam", "", "Exam name (required)")
		keywords = flag.String("keywords", "", "Comma-separated keywords to generate questions from (required)")
		dbPath   = flag.String("db", "./examtrainer.db", "Path to the exam database")
		model    = flag.String("model", string(examtrainer.ModelOpenAI), "AI model type (OpenAI, Claude, Ollama, DeepSeek)")
		apiKey   = flag.String("api-key", "", "Provider API key (or set EXAMTRAINER_API_KEY; not needed for Ollama)")
		export   = flag.Bool("export", false, "Print the exam's export token after generating")
		verbose  = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	examtrainer.SetVerbose(*verbose)

	if *examName == "" {
		log.Fatal("Exam name is required. Use -exam flag.")
	}
	kws := splitKeywords(*keywords)
	if len(kws) == 0 {
		log.Fatal("At least one keyword is required. Use -keywords flag.")
	}

	modelType := examtrainer.ModelType(*model)
	if *apiKey == "" {
		*apiKey = os.Getenv("EXAMTRAINER_API_KEY")
		if *apiKey == "" && modelType != examtrainer.ModelOllama {
			log.Fatal("API key is required. Use -api-key flag or set EXAMTRAINER_API_KEY.")
		}
	}

	client, err := examtrainer.NewClient(modelType, *apiKey)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}

	storage, err := examtrainer.OpenStorage(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer storage.Close()

	store := examtrainer.NewExamStore(storage)
	if err := store.Err(); err != nil {
		log.Fatalf("Failed to load exams: %v", err)
	}

	exam, ok := findExamByName(store, *examName)
	if !ok {
		exam, err = store.AddExam(examtrainer.ExamDraft{Name: *examName})
		if err != nil {
			log.Fatalf("Failed to create exam: %v", err)
		}
		log.Printf("Created exam %q (id %d)", exam.Name, exam.ID)
	}

	log.Printf("Generating questions for %q with %s (%d keywords)", *examName, modelType, len(kws))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	prompt := examtrainer.BuildPrompt(*examName, kws)
	result, err := client.Generate(ctx, prompt)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	valid, checks := examtrainer.FilterGeneratedQuestions(result.Questions)
	for _, check := range checks {
		if !check.Accepted {
			log.Printf("Skipping question %s: %s", check.QuestionID, check.Reason)
		}
	}
	if len(valid) == 0 {
		log.Fatal("No generated question passed validation.")
	}

	if err := ensureGenres(store, exam.ID, valid); err != nil {
		log.Fatalf("Failed to add genres: %v", err)
	}

	for _, gq := range valid {
		choices := make([]examtrainer.Choice, 0, len(gq.Choices))
		for i, gc := range gq.Choices {
			choices = append(choices, examtrainer.Choice{
				ID:        int64(i + 1),
				Choice:    gc.Choice,
				IsCorrect: gc.IsCorrect,
			})
		}
		question, err := store.AddQuestion(exam.ID, examtrainer.QuestionDraft{
			Question: gq.Question,
			Detail:   gq.Detail,
			Genre:    gq.Genre,
			Choices:  choices,
		})
		if err != nil {
			log.Fatalf("Failed to add question: %v", err)
		}
		examtrainer.VerboseLog("Added question %d: %s", question.ID, question.Question)
	}

	log.Printf("Added %d questions to exam %q", len(valid), exam.Name)

	if *export {
		updated, err := store.Exam(exam.ID)
		if err != nil {
			log.Fatalf("Failed to reload exam: %v", err)
		}
		token, err := examtrainer.ExportExam(updated)
		if err != nil {
			log.Fatalf("Failed to export exam: %v", err)
		}
		fmt.Println(token)
	}
}

func splitKeywords(raw string) []string {
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func findExamByName(store *examtrainer.ExamStore, name string) (examtrainer.Exam, bool) {
	for _, e := range store.Exams() {
		if e.Name == name {
			return e, true
		}
	}
	return examtrainer.Exam{}, false
}

// ensureGenres adds any genre named by the generated questions that the
// exam does not already have.
func ensureGenres(store *examtrainer.ExamStore, examID int64, questions []examtrainer.GeneratedQuestion) error {
	exam, err := store.Exam(examID)
	if err != nil {
		return err
	}

	existing := make(map[string]bool, len(exam.Genres))
	for _, g := range exam.Genres {
		existing[g.Name] = true
	}

	for _, q := range questions {
		if q.Genre == "" || existing[q.Genre] {
			continue
		}
		if _, err := store.AddGenre(examID, examtrainer.GenreDraft{Name: q.Genre}); err != nil {
			return err
		}
		existing[q.Genre] = true
	}
	return nil
}
