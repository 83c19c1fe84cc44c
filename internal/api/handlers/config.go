package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/merlai/internal/config"
	"github.com/Conceptual-Machines/merlai/internal/logger"
	"github.com/gin-gonic/gin"
)

type ConfigHandler struct {
	settings *config.Settings
}

func NewConfigHandler(settings *config.Settings) *ConfigHandler {
	return &ConfigHandler{settings: settings}
}

func (h *ConfigHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Snapshot())
}

// Update applies a partial settings update. Unknown keys are a 400, values
// of the wrong type or out of range a 422; nothing is applied on failure.
func (h *ConfigHandler) Update(c *gin.Context) {
	var update map[string]any
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{errorKey: err.Error()})
		return
	}

	updated, err := h.settings.Update(update)
	if err != nil {
		var uerr *config.UpdateError
		if errors.As(err, &uerr) && uerr.Unknown {
			c.JSON(http.StatusBadRequest, gin.H{detailKey: uerr.Error()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{detailKey: err.Error()})
		return
	}

	logger.Info("Generation settings updated", logger.WithContext(c))
	c.JSON(http.StatusOK, gin.H{
		"message":        "Configuration updated successfully",
		"updated_config": updated,
	})
}
