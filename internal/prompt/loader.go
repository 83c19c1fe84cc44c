package prompt

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/merlai/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the main system prompt
func (l *Loader) GetSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.SystemPromptTxt)), nil
}

// GetOutputFormatInstructions loads output format instructions
func (l *Loader) GetOutputFormatInstructions() (string, error) {
	return strings.TrimSpace(string(embedded.OutputFormatInstructionsTxt)), nil
}

// GetTaskInstructions loads the instructions for one generation kind
func (l *Loader) GetTaskInstructions(kind string) (string, error) {
	var data []byte
	switch kind {
	case "harmony":
		data = embedded.HarmonyInstructionsTxt
	case "bass":
		data = embedded.BassInstructionsTxt
	case "drums":
		data = embedded.DrumsInstructionsTxt
	case "analysis":
		data = embedded.AnalysisInstructionsTxt
	default:
		return "", fmt.Errorf("no instructions for generation kind: %s", kind)
	}
	return strings.TrimSpace(string(data)), nil
}
