package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// ModelEntry is one item of ai_models.available.
type ModelEntry struct {
	Name       string         `mapstructure:"name" json:"name"`
	Type       string         `mapstructure:"type" json:"type"`
	ModelPath  string         `mapstructure:"model_path" json:"model_path,omitempty"`
	LocalPath  string         `mapstructure:"local_path" json:"local_path,omitempty"`
	APIKey     string         `mapstructure:"api_key" json:"-"`
	Endpoint   string         `mapstructure:"endpoint" json:"endpoint,omitempty"`
	Parameters map[string]any `mapstructure:"parameters" json:"parameters,omitempty"`
}

// AIModels is the ai_models section.
type AIModels struct {
	Default   string       `mapstructure:"default" json:"default"`
	Available []ModelEntry `mapstructure:"available" json:"available"`
}

// ServerConfig is the server section, overridden by HOST/PORT flags.
type ServerConfig struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// PluginConfig is the plugins section.
type PluginConfig struct {
	Paths []string `mapstructure:"paths" json:"paths"`
}

// AppConfig is the YAML application file (~/.merlai/config.yaml by default).
type AppConfig struct {
	AIModels   AIModels         `mapstructure:"ai_models" json:"ai_models"`
	Generation GenerationParams `mapstructure:"generation" json:"generation"`
	Plugins    PluginConfig     `mapstructure:"plugins" json:"plugins"`
	Server     ServerConfig     `mapstructure:"server" json:"server"`
	UseAI      bool             `mapstructure:"use_ai" json:"use_ai"`

	// Path is the file the config was read from, empty when defaults were used.
	Path string `mapstructure:"-" json:"path,omitempty"`
}

func setAppDefaults(v *viper.Viper) {
	d := DefaultGenerationParams()
	v.SetDefault("generation.temperature", d.Temperature)
	v.SetDefault("generation.max_length", d.MaxLength)
	v.SetDefault("generation.batch_size", d.BatchSize)
	v.SetDefault("generation.top_p", d.TopP)
	v.SetDefault("generation.top_k", d.TopK)
	v.SetDefault("generation.repetition_penalty", d.RepetitionPenalty)
	v.SetDefault("generation.style", "pop")
	v.SetDefault("generation.key", "C")
	v.SetDefault("generation.tempo", 120)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("plugins.paths", DefaultPluginPaths())
	v.SetDefault("use_ai", false)
}

// LoadApp reads the YAML application config. A missing file is not an error:
// the defaults are returned with an empty Path.
func LoadApp(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setAppDefaults(v)

	if path == "" {
		path = DefaultAppConfigPath()
	}

	cfg := &AppConfig{}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		cfg.Path = path
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Generation.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation settings: %w", err)
	}
	return cfg, nil
}

// DefaultPluginPaths returns the conventional plugin folders for the current OS.
func DefaultPluginPaths() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Library/Audio/Plug-Ins/VST",
			"/Library/Audio/Plug-Ins/VST3",
			"/Library/Audio/Plug-Ins/Components",
			filepath.Join(home, "Library", "Audio", "Plug-Ins", "VST"),
			filepath.Join(home, "Library", "Audio", "Plug-Ins", "VST3"),
		}
	case "windows":
		return []string{
			`C:\Program Files\VSTPlugins`,
			`C:\Program Files\Common Files\VST3`,
			`C:\Program Files\Steinberg\VSTPlugins`,
		}
	default:
		return []string{
			"/usr/lib/vst",
			"/usr/lib/vst3",
			"/usr/local/lib/vst",
			"/usr/local/lib/vst3",
			filepath.Join(home, ".vst"),
			filepath.Join(home, ".vst3"),
		}
	}
}
