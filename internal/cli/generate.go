package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Conceptual-Machines/merlai/internal/generator"
	"github.com/Conceptual-Machines/merlai/internal/midi"
	"github.com/Conceptual-Machines/merlai/internal/models"
	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var (
	genStyle     string
	genKey       string
	genTempo     int
	genOutput    string
	genInput     string
	genUseAI     bool
	genModel     string
	genNoHarmony bool
	genNoBass    bool
	genNoDrums   bool
	genTranspose int
	genQuantize  float64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate accompaniment for a melody and write a MIDI file",
	Long: `Generate harmony, bass and drums for a melody.

The melody is read from --input (a .mid file or a JSON list of notes).
Without --input a C major scale is used.`,
	Example: `  merlai generate --style jazz --key F --tempo 100
  merlai generate -i melody.json -o song.mid --no-drums`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genStyle, "style", "s", "pop", "Musical style")
	generateCmd.Flags().StringVarP(&genKey, "key", "k", "C", "Musical key")
	generateCmd.Flags().IntVarP(&genTempo, "tempo", "t", 120, "Tempo in BPM")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output MIDI file (default: merlai_output_{style}_{key}.mid)")
	generateCmd.Flags().StringVarP(&genInput, "input", "i", "", "Melody file (.mid, .midi or .json)")
	generateCmd.Flags().BoolVar(&genUseAI, "use-ai", false, "Try registered AI models before the rules")
	generateCmd.Flags().StringVar(&genModel, "model", "", "Registered model to use (default: configured default)")
	generateCmd.Flags().BoolVar(&genNoHarmony, "no-harmony", false, "Skip harmony (and bass)")
	generateCmd.Flags().BoolVar(&genNoBass, "no-bass", false, "Skip the bass line")
	generateCmd.Flags().BoolVar(&genNoDrums, "no-drums", false, "Skip drums")
	generateCmd.Flags().IntVar(&genTranspose, "transpose", 0, "Shift the melody by semitones before generating")
	generateCmd.Flags().Float64Var(&genQuantize, "quantize", 0, "Snap the melody to a grid in seconds (e.g. 0.25)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	melody := sampleMelody()
	if genInput != "" {
		m, err := loadMelody(genInput)
		if err != nil {
			return err
		}
		melody = m
		clog.Info("Loaded melody", "file", genInput, "notes", len(melody.Notes))
	}
	if err := prepareMelody(cmd, &melody); err != nil {
		return err
	}

	rt := newRuntime(ctx, genUseAI)
	opts := generator.Options{
		Style:      genStyle,
		Key:        genKey,
		Harmony:    !genNoHarmony,
		Bass:       !genNoBass,
		Drums:      !genNoDrums,
		ModelName:  genModel,
		Parameters: rt.settings.Snapshot(),
	}
	// an input file keeps its own tempo and key unless overridden
	if genInput == "" || cmd.Flags().Changed("tempo") {
		opts.Tempo = genTempo
	}
	if genInput != "" && !cmd.Flags().Changed("key") {
		opts.Key = ""
	}

	clog.Info("Generating music", "style", genStyle, "ai", rt.generator.UseAI())
	comp, err := rt.generator.Compose(ctx, melody, opts)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	output := genOutput
	if output == "" {
		output = defaultOutputName(genStyle, genKey)
	}
	if err := os.WriteFile(output, comp.MIDI, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	if jsonOutput {
		return printJSON(out, map[string]any{
			"output":   output,
			"style":    genStyle,
			"key":      comp.Song.Key,
			"tempo":    comp.Song.Tempo,
			"duration": comp.Song.Duration,
			"tracks":   len(comp.Song.Tracks),
			"sources":  comp.Sources,
		})
	}

	printSuccess(out, "Generated music saved to: %s", output)
	printInfo(out, "Style: %s, Key: %s, Tempo: %d BPM", genStyle, comp.Song.Key, comp.Song.Tempo)
	for _, part := range []string{"harmony", "bass", "drums"} {
		if source, ok := comp.Sources[part]; ok {
			fmt.Fprintf(out, "  %-8s %s\n", part, source)
		}
	}
	return nil
}

// prepareMelody applies --quantize and --transpose.
func prepareMelody(cmd *cobra.Command, melody *models.Melody) error {
	if cmd.Flags().Changed("quantize") {
		notes, err := midi.QuantizeNotes(melody.Notes, genQuantize)
		if err != nil {
			return err
		}
		melody.Notes = notes
	}
	if genTranspose != 0 {
		melody.Notes = midi.TransposeNotes(melody.Notes, genTranspose)
	}
	return nil
}

func defaultOutputName(style, key string) string {
	return fmt.Sprintf("merlai_output_%s_%s.mid", style, key)
}

// sampleMelody is an ascending C major scale in eighth notes at 120 BPM.
func sampleMelody() models.Melody {
	pitches := []int{60, 62, 64, 65, 67, 69, 71, 72}
	notes := make([]models.Note, len(pitches))
	for i, p := range pitches {
		notes[i] = models.MustNote(p, 80, 0.5, float64(i)*0.5)
	}
	return models.NewMelody(notes)
}

// loadMelody reads a melody from a MIDI file (first track with notes) or
// from JSON: either a bare note array or an object with a "notes" field.
func loadMelody(path string) (models.Melody, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Melody{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		song, err := midi.ParseMIDIFile(data)
		if err != nil {
			return models.Melody{}, err
		}
		for _, t := range song.Tracks {
			if len(t.Notes) == 0 {
				continue
			}
			m := models.NewMelody(t.Notes)
			m.Tempo = song.Tempo
			m.TimeSignature = song.TimeSignature
			return m, nil
		}
		return models.Melody{}, fmt.Errorf("%s contains no notes", path)
	default:
		return parseMelodyJSON(data)
	}
}

func parseMelodyJSON(data []byte) (models.Melody, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var notes []models.Note
		if err := json.Unmarshal(data, &notes); err != nil {
			return models.Melody{}, fmt.Errorf("invalid melody JSON: %w", err)
		}
		return models.NewMelody(notes), nil
	}

	m := models.NewMelody(nil)
	if err := json.Unmarshal(data, &m); err != nil {
		return models.Melody{}, fmt.Errorf("invalid melody JSON: %w", err)
	}
	return m, nil
}
