package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/merlai/internal/llm"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	version  string
	registry *llm.Registry
}

func NewHealthHandler(version string, registry *llm.Registry) *HealthHandler {
	return &HealthHandler{version: version, registry: registry}
}

// Root returns the service banner
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": serviceName,
		"version": h.version,
	})
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": h.version,
	})
}

// Ready reports readiness along with how many models are registered. The
// service is ready without models: generation falls back to the rules.
func (h *HealthHandler) Ready(c *gin.Context) {
	count := 0
	if h.registry != nil {
		count = len(h.registry.List())
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"models": count,
	})
}
