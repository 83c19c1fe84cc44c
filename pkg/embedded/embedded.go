package embedded

import (
	_ "embed"
)

// Embed all prompt data files
//
//go:embed data/prompts/system_prompt.txt
var SystemPromptTxt []byte

//go:embed data/prompts/output_format_instructions.txt
var OutputFormatInstructionsTxt []byte

//go:embed data/prompts/harmony_instructions.txt
var HarmonyInstructionsTxt []byte

//go:embed data/prompts/bass_instructions.txt
var BassInstructionsTxt []byte

//go:embed data/prompts/drums_instructions.txt
var DrumsInstructionsTxt []byte

//go:embed data/prompts/analysis_instructions.txt
var AnalysisInstructionsTxt []byte
