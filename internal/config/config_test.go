package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PORT", "")
	t.Setenv("MERLAI_PLUGIN_PATHS", "/a"+string(os.PathListSeparator)+" /b ")

	cfg := Load()
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8000", cfg.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"/a", "/b"}, cfg.PluginPaths)
}

func TestLoadApp_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadApp(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, DefaultGenerationParams().Temperature, cfg.Generation.Temperature)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Empty(t, cfg.AIModels.Available)
}

func TestLoadApp_ReadsModels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ai_models:
  default: local-pop
  available:
    - name: local-pop
      type: huggingface
      local_path: /models/pop.yaml
    - name: remote
      type: external_api
      endpoint: http://localhost:9000
      api_key: secret
      parameters:
        timeout: 10
generation:
  temperature: 0.5
  top_k: 20
use_ai: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadApp(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.True(t, cfg.UseAI)
	assert.Equal(t, "local-pop", cfg.AIModels.Default)
	require.Len(t, cfg.AIModels.Available, 2)
	assert.Equal(t, "huggingface", cfg.AIModels.Available[0].Type)
	assert.Equal(t, "/models/pop.yaml", cfg.AIModels.Available[0].LocalPath)
	assert.Equal(t, "secret", cfg.AIModels.Available[1].APIKey)
	assert.EqualValues(t, 10, cfg.AIModels.Available[1].Parameters["timeout"])
	assert.Equal(t, 0.5, cfg.Generation.Temperature)
	assert.Equal(t, 20, cfg.Generation.TopK)
	assert.Equal(t, 1024, cfg.Generation.MaxLength)
}

func TestLoadApp_InvalidGeneration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation:\n  top_p: 3\n"), 0o600))

	_, err := LoadApp(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top_p")
}

func TestSettingsUpdate(t *testing.T) {
	tests := []struct {
		name        string
		update      map[string]any
		wantErr     bool
		wantUnknown bool
	}{
		{name: "valid number", update: map[string]any{"temperature": 0.5}},
		{name: "valid integer", update: map[string]any{"top_k": float64(10)}},
		{name: "unknown key", update: map[string]any{"volume": 1.0}, wantErr: true, wantUnknown: true},
		{name: "string for number", update: map[string]any{"temperature": "hot"}, wantErr: true},
		{name: "fraction for integer", update: map[string]any{"batch_size": 2.5}, wantErr: true},
		{name: "out of range", update: map[string]any{"top_p": 1.5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings(DefaultGenerationParams())
			before := s.Params()

			updated, err := s.Update(tt.update)
			if tt.wantErr {
				require.Error(t, err)
				var uerr *UpdateError
				require.ErrorAs(t, err, &uerr)
				assert.Equal(t, tt.wantUnknown, uerr.Unknown)
				assert.Equal(t, before, s.Params())
				return
			}
			require.NoError(t, err)
			for k, v := range tt.update {
				assert.EqualValues(t, v, updated[k])
			}
		})
	}
}
