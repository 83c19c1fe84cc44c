package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Conceptual-Machines/merlai/internal/midi"
	"github.com/Conceptual-Machines/merlai/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags(cmds ...*cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmds {
		c.Flags().VisitAll(reset)
	}
}

// run executes the root command with a config path that does not exist so
// the user's own config never leaks into tests.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(generateCmd, scanPluginsCmd, recommendPluginsCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	output := filepath.Join(t.TempDir(), "song.mid")

	out, err := run(t, "generate", "--style", "jazz", "--key", "F", "--tempo", "100", "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated music saved to: "+output)
	assert.Contains(t, out, "Style: jazz, Key: F, Tempo: 100 BPM")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	song, err := midi.ParseMIDIFile(data)
	require.NoError(t, err)
	assert.Len(t, song.Tracks, 4)
	assert.Equal(t, 100, song.Tempo)
}

func TestGenerateCommand_JSONInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "melody.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"notes":[
		{"pitch":64,"velocity":90,"duration":1,"start_time":0},
		{"pitch":67,"velocity":90,"duration":1,"start_time":1}
	],"tempo":90,"key":"G"}`), 0o644))
	output := filepath.Join(dir, "out.mid")

	out, err := run(t, "generate", "-i", input, "-o", output, "--no-drums")
	require.NoError(t, err)
	assert.Contains(t, out, "Key: G, Tempo: 90 BPM")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	song, err := midi.ParseMIDIFile(data)
	require.NoError(t, err)
	assert.Len(t, song.Tracks, 3)
}

func TestGenerateCommand_InvalidInput(t *testing.T) {
	input := filepath.Join(t.TempDir(), "melody.json")
	require.NoError(t, os.WriteFile(input, []byte(`[{"pitch":200,"velocity":90,"duration":1,"start_time":0}]`), 0o644))

	_, err := run(t, "generate", "-i", input, "-o", filepath.Join(t.TempDir(), "x.mid"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Pitch must be between 0 and 127")
}

func TestParseMelodyJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNotes int
		wantTempo int
		wantErr   bool
	}{
		{name: "bare array", input: `[{"pitch":60,"velocity":80,"duration":0.5,"start_time":0}]`, wantNotes: 1, wantTempo: models.DefaultTempo},
		{name: "object", input: `{"notes":[{"pitch":60,"velocity":80,"duration":0.5,"start_time":0}],"tempo":140}`, wantNotes: 1, wantTempo: 140},
		{name: "invalid", input: `{"notes":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := parseMelodyJSON([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, m.Notes, tt.wantNotes)
			assert.Equal(t, tt.wantTempo, m.Tempo)
		})
	}
}

func TestLoadMelody_MIDI(t *testing.T) {
	melody := sampleMelody()
	data, err := midi.CreateMIDIFromNotes(melody.Notes, 96)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "melody.mid")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	m, err := loadMelody(path)
	require.NoError(t, err)
	assert.Len(t, m.Notes, len(melody.Notes))
	assert.Equal(t, 96, m.Tempo)
	assert.Equal(t, 60, m.Notes[0].Pitch)
}

func TestDefaultOutputName(t *testing.T) {
	assert.Equal(t, "merlai_output_pop_C.mid", defaultOutputName("pop", "C"))
}

func TestScanPluginsCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SubBass.vst3"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	export := filepath.Join(dir, "plugins.yaml")

	out, err := run(t, "scan-plugins", "--directory", dir, "--output", export)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 plugins")
	assert.Contains(t, out, "SubBass")
	assert.FileExists(t, export)
}

func TestRecommendPluginsCommand_FromExport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SubBass.vst3"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DrumRhythm.so"), nil, 0o644))
	export := filepath.Join(dir, "plugins.yaml")

	_, err := run(t, "scan-plugins", "--directory", dir, "--output", export)
	require.NoError(t, err)

	out, err := run(t, "recommend-plugins", "--from", export, "--style", "jazz", "--instrument", "bass")
	require.NoError(t, err)
	assert.Contains(t, out, "Recommended plugins for jazz bass:")
	assert.Contains(t, out, "1. SubBass")
	assert.NotContains(t, out, "DrumRhythm")
}

func TestGenerateCommand_TransposeAndQuantize(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "melody.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
		{"pitch":60,"velocity":90,"duration":0.45,"start_time":0.02},
		{"pitch":62,"velocity":90,"duration":0.55,"start_time":0.49}
	]`), 0o644))
	output := filepath.Join(dir, "out.mid")

	_, err := run(t, "generate", "-i", input, "-o", output, "--transpose", "12", "--quantize", "0.5", "--no-harmony", "--no-drums")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	song, err := midi.ParseMIDIFile(data)
	require.NoError(t, err)
	require.Len(t, song.Tracks, 1)
	notes := song.Tracks[0].Notes
	require.Len(t, notes, 2)
	assert.Equal(t, 72, notes[0].Pitch)
	assert.InDelta(t, 0.0, notes[0].StartTime, 1e-6)
	assert.InDelta(t, 0.5, notes[0].Duration, 1e-6)
	assert.Equal(t, 74, notes[1].Pitch)
	assert.InDelta(t, 0.5, notes[1].StartTime, 1e-6)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "merlai ")
}
