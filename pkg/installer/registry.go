package installer

import (
	"github.com/loonghao/vx/pkg/manager"
	"github.com/loonghao/vx/pkg/plugin"
)

// NewManagerRegistry returns the global package manager registry
func NewManagerRegistry() *manager.Registry {
	return manager.GetGlobalRegistry()
}

// GetPluginRegistry returns the global plugin registry
func GetPluginRegistry() *plugin.Registry {
	return plugin.GetGlobalRegistry()
}
