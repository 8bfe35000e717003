package examtrainer

import "fmt"

// GenerationCheck records the verdict on one generated question.
type GenerationCheck struct {
	QuestionID string `json:"question_id"`
	Accepted   bool   `json:"accepted"`
	Reason     string `json:"reason"`
}

// CheckGeneratedQuestion validates one generated question against the
// structural rules the providers are prompted with: non-empty text, 2-8
// choices each with text, at least one correct choice, and not every
// choice correct.
func CheckGeneratedQuestion(q GeneratedQuestion) GenerationCheck {
	reject := func(format string, args ...interface{}) GenerationCheck {
		return GenerationCheck{QuestionID: q.ID, Reason: fmt.Sprintf(format, args...)}
	}

	if q.Question == "" {
		return reject("question text is empty")
	}
	if len(q.Choices) < 2 || len(q.Choices) > 8 {
		return reject("question has %d choices, want between 2 and 8", len(q.Choices))
	}

	correct := 0
	for i, c := range q.Choices {
		if c.Choice == "" {
			return reject("choice %d has empty text", i+1)
		}
		if c.IsCorrect {
			correct++
		}
	}
	if correct == 0 {
		return reject("no choice is marked correct")
	}
	if correct == len(q.Choices) {
		return reject("every choice is marked correct")
	}

	return GenerationCheck{QuestionID: q.ID, Accepted: true, Reason: "ok"}
}

// FilterGeneratedQuestions splits a generated batch into the questions that
// pass validation and the per-question verdicts. Invalid questions are
// dropped from the batch rather than failing the whole generation.
func FilterGeneratedQuestions(questions []GeneratedQuestion) ([]GeneratedQuestion, []GenerationCheck) {
	valid := make([]GeneratedQuestion, 0, len(questions))
	checks := make([]GenerationCheck, 0, len(questions))

	for _, q := range questions {
		check := CheckGeneratedQuestion(q)
		checks = append(checks, check)
		if check.Accepted {
			valid = append(valid, q)
		} else {
			VerboseLog("Dropping generated question %s: %s", q.ID, check.Reason)
		}
	}
	return valid, checks
}
