package installer

import (
	"github.com/loonghao/vx/pkg/depgraph"
	"github.com/loonghao/vx/pkg/types"
)

// dependencyInstallOrder orders the tools listed in depsConfig.Dependencies
// so that any RuntimeSpec.Dependencies a tool declares are installed
// before it, detecting cycles and conflicting constraints up front
// instead of surfacing them mid-install.
func dependencyInstallOrder(depsConfig *types.DepsConfig) ([]string, error) {
	wanted := make(map[string]bool, len(depsConfig.Dependencies))
	for name := range depsConfig.Dependencies {
		wanted[name] = true
	}

	g := depgraph.New()
	for name := range wanted {
		if spec, ok := depsConfig.Registry[name]; ok {
			g.AddTool(spec)
		}
	}

	res, err := g.Resolve()
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(wanted))
	seen := make(map[string]bool, len(wanted))
	for _, name := range res.InstallOrder {
		if wanted[name] && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	// Anything requested but not reachable through AddTool (e.g. not in
	// the registry at all) still needs a slot so installTool can report
	// its own "not found in registry" error.
	for name := range wanted {
		if !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}

	return order, nil
}
