package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Conceptual-Machines/merlai/internal/plugins"
	"github.com/gin-gonic/gin"
)

type PluginsHandler struct {
	manager *plugins.Manager
}

func NewPluginsHandler(manager *plugins.Manager) *PluginsHandler {
	return &PluginsHandler{manager: manager}
}

type SetParameterRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

func pluginNotFound(c *gin.Context, name string) {
	c.JSON(http.StatusNotFound, gin.H{detailKey: fmt.Sprintf("Plugin %s not found", name)})
}

// List returns the known plugins, scanning once if none are known yet.
func (h *PluginsHandler) List(c *gin.Context) {
	list := h.manager.List()
	if len(list) == 0 {
		h.manager.Scan()
		list = h.manager.List()
	}
	c.JSON(http.StatusOK, gin.H{"plugins": list, "count": len(list)})
}

func (h *PluginsHandler) Scan(c *gin.Context) {
	found := h.manager.Scan()
	c.JSON(http.StatusOK, gin.H{"plugins": found, "count": len(found), "paths": h.manager.Paths()})
}

func (h *PluginsHandler) Recommend(c *gin.Context) {
	style := c.Query("style")
	instrument := c.Query("instrument")
	if style == "" || instrument == "" {
		c.JSON(http.StatusBadRequest, gin.H{errorKey: "style and instrument query parameters are required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"style":           style,
		"instrument":      instrument,
		"recommendations": h.manager.Recommend(style, instrument),
	})
}

func (h *PluginsHandler) Info(c *gin.Context) {
	name := c.Param("name")
	info, ok := h.manager.Info(name)
	if !ok {
		pluginNotFound(c, name)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *PluginsHandler) Load(c *gin.Context) {
	name := c.Param("name")
	if !h.manager.Load(name) {
		pluginNotFound(c, name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Plugin %s loaded successfully", name)})
}

// Parameters lists the parameters of a plugin. Known plugins that are not
// loaded have none.
func (h *PluginsHandler) Parameters(c *gin.Context) {
	name := c.Param("name")
	if _, ok := h.manager.Info(name); !ok {
		pluginNotFound(c, name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plugin_name": name, "parameters": h.manager.Parameters(name)})
}

func (h *PluginsHandler) SetParameter(c *gin.Context) {
	name := c.Param("name")
	parameter := c.Param("parameter")

	var req SetParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{errorKey: err.Error()})
		return
	}

	if err := h.manager.SetParameter(name, parameter, *req.Value); err != nil {
		if errors.Is(err, plugins.ErrPluginNotFound) {
			pluginNotFound(c, name)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{detailKey: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Parameter %s set to %g for plugin %s", parameter, *req.Value, name),
	})
}

func (h *PluginsHandler) Presets(c *gin.Context) {
	name := c.Param("name")
	if _, ok := h.manager.Info(name); !ok {
		pluginNotFound(c, name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plugin_name": name, "presets": h.manager.Presets(name)})
}
