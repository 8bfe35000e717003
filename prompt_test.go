package examtrainer

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Driving Test", []string{"right of way", "road signs"})

	if !strings.Contains(prompt, "Driving Test") {
		t.Error("prompt should mention the exam name")
	}
	for _, kw := range []string{"- right of way", "- road signs"} {
		if !strings.Contains(prompt, kw) {
			t.Errorf("prompt missing keyword bullet %q", kw)
		}
	}
	if !strings.Contains(prompt, "exactly 10 questions") {
		t.Error("prompt should pin the question count")
	}
	if !strings.Contains(prompt, "is_correct") {
		t.Error("prompt should describe the is_correct field")
	}
	if !strings.Contains(prompt, "between 2 and 8 choices") {
		t.Error("prompt should state the choice bounds")
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	keywords := []string{"a", "b", "c"}
	first := BuildPrompt("exam", keywords)
	second := BuildPrompt("exam", keywords)
	if first != second {
		t.Error("the same inputs should produce the same prompt")
	}
}

func TestValidatePrompt(t *testing.T) {
	if !ValidatePrompt(BuildPrompt("exam", []string{"kw"})) {
		t.Error("a freshly built prompt should validate")
	}
	if ValidatePrompt("") {
		t.Error("an empty prompt should not validate")
	}
	if ValidatePrompt("write some questions please") {
		t.Error("a prompt without the schema elements should not validate")
	}
}
