package examtrainer

import "math/rand"

// IsCorrectSelection reports whether the selected choice ids exactly match
// the set of choices flagged correct: same membership, same cardinality,
// order-independent. A strict subset or superset of the correct choices, or
// any incorrect choice, scores as wrong. There is no partial credit.
func IsCorrectSelection(q Question, selectedIDs []int64) bool {
	correct := make(map[int64]bool)
	for _, c := range q.Choices {
		if c.IsCorrect {
			correct[c.ID] = true
		}
	}

	selected := make(map[int64]bool)
	for _, id := range selectedIDs {
		selected[id] = true
	}

	if len(selected) != len(correct) {
		return false
	}
	for id := range selected {
		if !correct[id] {
			return false
		}
	}
	return true
}

// SelectQuestions builds the question list for a quiz session. ModeRandom
// samples up to count questions (genre-filtered when genre is non-empty).
// ModeAll returns the entire exam, in insertion order when ordered is true
// and shuffled otherwise. ModeWrongOnly returns every question previously
// answered wrong, shuffled; count does not apply, a retry session always
// covers the whole wrong set.
func SelectQuestions(exams *ExamStore, progress *ProgressStore, examID int64, mode QuizMode, count int, genre string, ordered bool) []Question {
	switch mode {
	case ModeAll:
		questions := exams.Questions(examID, genre)
		if !ordered {
			rand.Shuffle(len(questions), func(i, j int) {
				questions[i], questions[j] = questions[j], questions[i]
			})
		}
		return questions

	case ModeWrongOnly:
		wrongIDs := progress.WrongQuestionIDs(examID)
		if len(wrongIDs) == 0 {
			return nil
		}
		wrong := make(map[int64]bool, len(wrongIDs))
		for _, id := range wrongIDs {
			wrong[id] = true
		}

		exam, err := exams.Exam(examID)
		if err != nil {
			return nil
		}
		pool := exams.RandomQuestions(examID, len(exam.Questions), genre)
		selected := make([]Question, 0, len(wrongIDs))
		for _, q := range pool {
			if wrong[q.ID] {
				selected = append(selected, q)
			}
		}
		return selected

	default: // ModeRandom
		return exams.RandomQuestions(examID, count, genre)
	}
}
