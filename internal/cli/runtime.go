package cli

import (
	"context"

	"github.com/Conceptual-Machines/merlai/internal/config"
	"github.com/Conceptual-Machines/merlai/internal/generator"
	"github.com/Conceptual-Machines/merlai/internal/llm"
	"github.com/Conceptual-Machines/merlai/internal/metrics"
	"github.com/Conceptual-Machines/merlai/internal/plugins"
)

// runtime is the set of services a command works with, built from the
// environment and the YAML application config.
type runtime struct {
	registry  *llm.Registry
	generator *generator.MusicGenerator
	plugins   *plugins.Manager
	settings  *config.Settings
}

func newRuntime(ctx context.Context, useAI bool) *runtime {
	env := envConfig
	if env == nil {
		env = config.Load()
	}
	app := appConfig
	if app == nil {
		app = &config.AppConfig{Generation: config.DefaultGenerationParams(), Plugins: config.PluginConfig{Paths: config.DefaultPluginPaths()}}
	}

	registry := llm.NewRegistry(llm.NewFactory(ctx, env.OpenAIAPIKey, env.GeminiAPIKey))
	if len(app.AIModels.Available) > 0 {
		registry.LoadFromConfig(app.AIModels)
	}

	recorder := metrics.NewRecorder(metrics.NewCloudWatch(ctx, env.Environment))

	paths := append(append([]string{}, app.Plugins.Paths...), env.PluginPaths...)

	return &runtime{
		registry:  registry,
		generator: generator.NewMusicGenerator(registry, recorder, useAI || app.UseAI || env.UseAI),
		plugins:   plugins.NewManager(paths),
		settings:  config.NewSettings(app.Generation),
	}
}
