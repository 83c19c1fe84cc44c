package prompt

import (
	"strings"
	"testing"
)

func TestGetSystemPrompt(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetSystemPrompt()
	if err != nil {
		t.Fatalf("GetSystemPrompt() returned error: %v", err)
	}
	if !strings.Contains(content, "music composition assistant") {
		t.Error("GetSystemPrompt() does not contain expected content")
	}
	if strings.HasPrefix(content, "\n") || strings.HasSuffix(content, "\n") {
		t.Error("GetSystemPrompt() was not trimmed")
	}
}

func TestGetTaskInstructions(t *testing.T) {
	loader := NewPromptLoader()

	for _, kind := range []string{"harmony", "bass", "drums", "analysis"} {
		t.Run(kind, func(t *testing.T) {
			content, err := loader.GetTaskInstructions(kind)
			if err != nil {
				t.Fatalf("GetTaskInstructions(%q) returned error: %v", kind, err)
			}
			if !strings.Contains(content, "TASK: "+strings.ToUpper(kind)) {
				t.Errorf("instructions for %q missing task header", kind)
			}
			if !strings.Contains(content, "Return: {") {
				t.Errorf("instructions for %q missing JSON example", kind)
			}
		})
	}

	if _, err := loader.GetTaskInstructions("melody"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestBuildPrompt(t *testing.T) {
	builder := NewPromptBuilder()

	prompt, err := builder.BuildPrompt("harmony", "jazz", "F")
	if err != nil {
		t.Fatalf("BuildPrompt() returned error: %v", err)
	}

	for _, want := range []string{"music composition assistant", "TASK: HARMONY", "OUTPUT FORMAT", "Style: jazz", "Key: F"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	plain, err := builder.BuildPrompt("drums", "", "")
	if err != nil {
		t.Fatalf("BuildPrompt() returned error: %v", err)
	}
	if strings.Contains(plain, "CONTEXT:") {
		t.Error("context section should be omitted without style and key")
	}

	if _, err := builder.BuildPrompt("vocals", "", ""); err == nil {
		t.Error("expected error for unknown kind")
	}
}
