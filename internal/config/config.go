package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds process-level settings read from the environment.
// Model definitions and generation defaults live in the YAML app config (see LoadApp).
type Config struct {
	// Environment
	Environment string
	Host        string
	Port        string
	LogLevel    string

	// Hosted model API keys, used when a model entry carries none
	OpenAIAPIKey string
	GeminiAPIKey string

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string
	LangfuseSecretKey string
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse

	// Application
	AppConfigPath string   // YAML file with ai_models, generation and plugin settings
	PluginPaths   []string // Extra plugin directories, colon separated in MERLAI_PLUGIN_PATHS
	UseAI         bool     // Try registered models before rule-based generation
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Host:              getEnv("HOST", "0.0.0.0"),
		Port:              getEnv("PORT", "8000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
		AppConfigPath:     getEnv("MERLAI_CONFIG", DefaultAppConfigPath()),
		PluginPaths:       splitList(getEnv("MERLAI_PLUGIN_PATHS", "")),
		UseAI:             getEnv("MERLAI_USE_AI", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(value, string(os.PathListSeparator)) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsProduction returns true when running with ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DefaultAppConfigPath returns ~/.merlai/config.yaml, or a relative path when
// the home directory cannot be resolved.
func DefaultAppConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".merlai", "config.yaml")
	}
	return filepath.Join(home, ".merlai", "config.yaml")
}
