package api

import (
	"github.com/Conceptual-Machines/merlai/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/merlai/internal/api/middleware"
	"github.com/Conceptual-Machines/merlai/internal/config"
	"github.com/Conceptual-Machines/merlai/internal/generator"
	"github.com/Conceptual-Machines/merlai/internal/llm"
	"github.com/Conceptual-Machines/merlai/internal/plugins"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the shared services the handlers are built from.
type Dependencies struct {
	Registry  *llm.Registry
	Generator *generator.MusicGenerator
	Plugins   *plugins.Manager
	Settings  *config.Settings
	Version   string

	// CORSOrigins restricts browser origins; empty allows all.
	CORSOrigins []string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())
	router.Use(apimiddleware.SentryMiddleware())
	router.Use(apimiddleware.RequestTracking())
	router.Use(apimiddleware.Prometheus())
	router.Use(apimiddleware.CORS(deps.CORSOrigins))

	healthHandler := handlers.NewHealthHandler(deps.Version, deps.Registry)
	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.Ready)

	metricsHandler := handlers.NewMetricsHandler(deps.Version, deps.Registry, deps.Generator)
	router.GET("/api/metrics", metricsHandler.GetMetrics)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	generationHandler := handlers.NewGenerationHandler(deps.Generator, deps.Settings)
	router.POST("/generate", generationHandler.Generate)

	ai := router.Group("/ai")
	{
		modelsHandler := handlers.NewModelsHandler(deps.Registry, deps.Generator, deps.Settings)
		ai.GET("/models", modelsHandler.List)
		ai.POST("/models/register", modelsHandler.Register)
		ai.POST("/models/:name/set-default", modelsHandler.SetDefault)
		ai.DELETE("/models/:name", modelsHandler.Remove)

		ai.POST("/generate/harmony", modelsHandler.GenerateHarmony)
		ai.POST("/generate/bass", modelsHandler.GenerateBass)
		ai.POST("/generate/drums", modelsHandler.GenerateDrums)
		ai.POST("/analyze", modelsHandler.Analyze)
	}

	pluginGroup := router.Group("/plugins")
	{
		pluginsHandler := handlers.NewPluginsHandler(deps.Plugins)
		pluginGroup.GET("", pluginsHandler.List)
		pluginGroup.POST("/scan", pluginsHandler.Scan)
		pluginGroup.GET("/recommend", pluginsHandler.Recommend)
		pluginGroup.GET("/:name", pluginsHandler.Info)
		pluginGroup.POST("/:name/load", pluginsHandler.Load)
		pluginGroup.GET("/:name/parameters", pluginsHandler.Parameters)
		pluginGroup.POST("/:name/parameters/:parameter", pluginsHandler.SetParameter)
		pluginGroup.GET("/:name/presets", pluginsHandler.Presets)
	}

	configHandler := handlers.NewConfigHandler(deps.Settings)
	router.GET("/config", configHandler.Get)
	router.POST("/config", configHandler.Update)

	return router
}
