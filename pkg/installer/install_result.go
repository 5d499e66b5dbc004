package installer

import (
	"fmt"
	"time"

	"github.com/flanksource/clicky/task"
	"github.com/loonghao/vx/pkg/paths"
	"github.com/loonghao/vx/pkg/platform"
	"github.com/loonghao/vx/pkg/shim"
	"github.com/loonghao/vx/pkg/types"
)

// InstallWithResult installs name@version like Install, but also
// returns the types.InstallResult describing what happened: which
// RuntimeSpec and platform were used, where the binary landed, and
// whether the call needed to install anything or found it already
// present. This is the shape the public vx.Install API and the
// runtime-detection helpers in pkg/scripts build on.
func (i *Installer) InstallWithResult(name, version string, t *task.Task) (*types.InstallResult, error) {
	if i.depsConfig == nil {
		return nil, fmt.Errorf("install %s: no registry configured", name)
	}

	pkg, exists := i.depsConfig.Registry[name]
	if !exists {
		return nil, fmt.Errorf("tool %s not found in registry - please add it to the registry", name)
	}

	plat := platform.Current()
	result := &types.InstallResult{
		Package: pkg,
		Options: types.InstallOptions{
			BinDir:       i.options.BinDir,
			Platform:     plat,
			Force:        i.options.Force,
			SkipChecksum: i.options.SkipChecksum,
		},
		Platform: plat,
		BinDir:   i.options.BinDir,
		AppDir:   i.options.AppDir,
	}

	start := time.Now()
	err := i.installTool(ToolSpec{Name: name, Version: version}, t)
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = types.InstallStatusFailed
		return result, err
	}

	if i.options.Force {
		result.Status = types.InstallStatusForcedInstalled
	} else {
		result.Status = types.InstallStatusInstalled
	}
	result.VersionStatus = types.VersionStatusValid

	if err := writeShim(name); err != nil {
		t.Warnf("failed to write shim for %s: %v", name, err)
	}

	return result, nil
}

// writeShim places a "vx exec <name>" forwarder on the global shim
// PATH so invoking name directly (outside of vx's own transparent
// front-door rewriting) still resolves through vx.
func writeShim(name string) error {
	dir, err := paths.ShimDir()
	if err != nil {
		return err
	}
	return shim.NewBuilder(dir).Build(shim.Target{Name: name})
}
