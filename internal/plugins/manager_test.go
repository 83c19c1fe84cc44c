package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte{}, 0o644))
}

func scannedManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "SubBass.vst3"))
	touch(t, filepath.Join(dir, "nested", "DrumRhythm.so"))
	touch(t, filepath.Join(dir, "readme.txt"))
	// macOS-style bundle directory with contents that must not be scanned
	touch(t, filepath.Join(dir, "PopLead.component", "Contents", "inner.so"))

	m := NewManager([]string{dir, filepath.Join(dir, "missing")})
	require.Len(t, m.Scan(), 3)
	return m
}

func TestManager_Scan(t *testing.T) {
	m := scannedManager(t)

	names := []string{}
	for _, p := range m.List() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"DrumRhythm", "PopLead", "SubBass"}, names)

	info, ok := m.Info("SubBass")
	require.True(t, ok)
	assert.Equal(t, "VST3", info.Type)
	assert.Equal(t, "Synth", info.Category)
	assert.False(t, info.Loaded)
}

func TestManager_Recommend(t *testing.T) {
	m := scannedManager(t)

	tests := []struct {
		name       string
		style      string
		instrument string
		want       []string
	}{
		{name: "bass", style: "jazz", instrument: "bass", want: []string{"SubBass"}},
		{name: "drums", style: "rock", instrument: "drums", want: []string{"DrumRhythm"}},
		{name: "pop lead", style: "pop", instrument: "lead", want: []string{"PopLead"}},
		{name: "unknown keywords", style: "polka", instrument: "kazoo", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, p := range m.Recommend(tt.style, tt.instrument) {
				got = append(got, p.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManager_RecommendCapsResults(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bass1", "bass2", "bass3", "bass4", "bass5", "bass6"} {
		touch(t, filepath.Join(dir, name+".dll"))
	}
	m := NewManager([]string{dir})
	m.Scan()

	assert.Len(t, m.Recommend("pop", "bass"), MaxRecommendations)
}

func TestManager_LoadAndParameters(t *testing.T) {
	m := scannedManager(t)

	assert.Empty(t, m.Parameters("SubBass"))
	assert.False(t, m.Load("Nope"))
	require.True(t, m.Load("SubBass"))
	assert.True(t, m.IsLoaded("SubBass"))

	params := m.Parameters("SubBass")
	require.Len(t, params, 2)
	assert.Equal(t, "Volume", params[0].Name)
	assert.Equal(t, 0.5, params[0].Value)

	require.NoError(t, m.SetParameter("SubBass", "Cutoff", 0.2))
	assert.Equal(t, 0.2, m.Parameters("SubBass")[1].Value)

	assert.Error(t, m.SetParameter("SubBass", "Cutoff", 2))
	assert.Error(t, m.SetParameter("SubBass", "Drive", 0.5))
	assert.ErrorIs(t, m.SetParameter("PopLead", "Volume", 0.5), ErrPluginNotFound)
}

func TestManager_RescanKeepsLoaded(t *testing.T) {
	m := scannedManager(t)
	require.True(t, m.Load("SubBass"))
	require.NoError(t, m.SetParameter("SubBass", "Cutoff", 0.2))

	found := m.Scan()
	require.Len(t, found, 3)
	for _, p := range found {
		assert.Equal(t, p.Name == "SubBass", p.Loaded, p.Name)
	}

	assert.True(t, m.IsLoaded("SubBass"))
	info, ok := m.Info("SubBass")
	require.True(t, ok)
	assert.True(t, info.Loaded)
	assert.Equal(t, 0.2, m.Parameters("SubBass")[1].Value)
}

func TestManager_Presets(t *testing.T) {
	m := scannedManager(t)

	assert.Empty(t, m.Presets("Nope"))
	presets := m.Presets("PopLead")
	require.Len(t, presets, 2)
	assert.Equal(t, "Bright", presets[1].Name)
	assert.Equal(t, 0.9, presets[1].Parameters["Cutoff"])
}

func TestManager_ExportImport(t *testing.T) {
	m := scannedManager(t)
	require.True(t, m.Load("DrumRhythm"))

	path := filepath.Join(t.TempDir(), "plugins.yaml")
	require.NoError(t, m.ExportPresets(path))

	restored := NewManager(nil)
	require.NoError(t, restored.ImportPresets(path))

	assert.Len(t, restored.List(), 3)
	info, ok := restored.Info("DrumRhythm")
	require.True(t, ok)
	assert.True(t, info.Loaded)
	assert.Equal(t, "SO", info.Type)
	assert.True(t, restored.IsLoaded("DrumRhythm"))

	assert.Error(t, restored.ImportPresets(filepath.Join(t.TempDir(), "missing.yaml")))
}
