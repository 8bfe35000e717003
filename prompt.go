package examtrainer

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the question-generation instruction for an exam name
// and keyword list. Pure and deterministic: the same inputs always produce
// the same prompt.
func BuildPrompt(examName string, keywords []string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are writing questions for the %q exam.\n", examName))
	sb.WriteString("Write exactly 10 questions using the following keywords:\n\n")

	for _, k := range keywords {
		sb.WriteString(fmt.Sprintf("- %s\n", k))
	}
	sb.WriteString("\n")

	sb.WriteString("You must reply with JSON in exactly this format:\n\n")
	sb.WriteString(`{
  "questions": [
    {
      "id": "exam-01",
      "question": "question text",
      "genre": "genre name",
      "detail": "explanation (optional)",
      "choices": [
        {
          "id": "1",
          "choice": "first choice",
          "is_correct": true
        },
        {
          "id": "2",
          "choice": "second choice",
          "is_correct": false
        }
      ]
    }
  ]
}
`)
	sb.WriteString("\nConstraints:\n")
	sb.WriteString("- Each question has between 2 and 8 choices\n")
	sb.WriteString("- More than one choice may have is_correct set to true\n")
	sb.WriteString("- A choice with is_correct true counts as a correct answer\n")

	return sb.String()
}

// ValidatePrompt checks that a prompt still mentions every schema element
// the providers are instructed to emit.
func ValidatePrompt(prompt string) bool {
	if prompt == "" {
		return false
	}
	required := []string{"questions", "id", "question", "genre", "choices", "is_correct"}
	for _, element := range required {
		if !strings.Contains(prompt, element) {
			return false
		}
	}
	return true
}
