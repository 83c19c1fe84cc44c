package prompt

import (
	"fmt"
	"strings"
)

// Builder assembles system prompts for hosted generation models
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{loader: NewPromptLoader()}
}

// BuildPrompt builds the complete system prompt for one generation kind.
// Style and key are appended as context when set.
func (b *Builder) BuildPrompt(kind, style, key string) (string, error) {
	system, err := b.loader.GetSystemPrompt()
	if err != nil {
		return "", err
	}
	task, err := b.loader.GetTaskInstructions(kind)
	if err != nil {
		return "", err
	}
	format, err := b.loader.GetOutputFormatInstructions()
	if err != nil {
		return "", err
	}

	sections := []string{system, task, format}
	if style != "" || key != "" {
		sections = append(sections, fmt.Sprintf("CONTEXT:\nStyle: %s\nKey: %s", orDash(style), orDash(key)))
	}
	return strings.Join(sections, "\n\n"), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
