package exec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/loonghao/vx/pkg/config"
	"github.com/loonghao/vx/pkg/envassembler"
	"github.com/loonghao/vx/pkg/envs"
	"github.com/loonghao/vx/pkg/manager"
	"github.com/loonghao/vx/pkg/paths"
	"github.com/loonghao/vx/pkg/platform"
	"github.com/loonghao/vx/pkg/registry"
	"github.com/loonghao/vx/pkg/types"
)

// prepare locates the executable for the resolved, ensured runtime and
// assembles its execution environment, implementing the three
// branches spec §4.8 step 3 describes:
//
//   - Direct: the runtime's own binary, found via the store layout or
//     the installer's bin dir. The default whenever the runtime's
//     registry.Runtime has no ExecutionPreparer or returns (nil, nil).
//   - Proxy-managed (yarn@2+ under corepack): PrepareExecution has
//     already activated the version through the host's proxy and
//     returns ExecutionPrep{UseSystemPath: true}; the binary is found
//     on PATH by name rather than in the vx store.
//   - Bundled (msbuild inside the .NET SDK): PrepareExecution returns
//     ExecutionPrep{ExecutableOverride, CommandPrefix}; the host's own
//     binary is invoked with this runtime's name as a leading argument.
func (p *Pipeline) prepare(ctx context.Context, res *resolved, ens *ensured, req Request) (*prepared, error) {
	rt, err := registry.GetGlobalRegistry().GetRuntime(res.spec.Name)
	if err != nil {
		return nil, &PrepareError{Kind_: UnknownRuntime, Runtime: res.spec.Name, Err: err}
	}

	var execPrep *registry.ExecutionPrep
	if preparer, ok := rt.(registry.ExecutionPreparer); ok {
		execPrep, err = preparer.PrepareExecution(ctx, registry.PrepareContext{
			Version:        res.version,
			HostInstallDir: ens.installDir,
		})
		if err != nil {
			return nil, prepareExecutionError(res.spec, err)
		}
	}

	plat := platform.Current()
	listSep := ":"
	if plat.OS == "windows" {
		listSep = ";"
	}

	execPath, prefix, err := locateExecutable(res.spec, res.version, ens, execPrep, plat)
	if err != nil {
		return nil, err
	}

	asm := envassembler.FromOSEnviron(listSep)
	asm.Prepend(envassembler.PriorityVxTools, "PATH", ens.installDir)
	asm.SeedRuntimeVars(res.spec.Name, res.version, ens.installDir)

	if len(res.spec.EnvVars) > 0 {
		rendered, err := envs.RenderEnvs(res.spec.EnvVars, map[string]interface{}{
			"name": res.spec.Name, "version": res.version, "os": plat.OS, "arch": plat.Arch,
		})
		if err != nil {
			return nil, &PrepareError{Kind_: EnvironmentFailed, Runtime: res.spec.Name, Err: fmt.Errorf("render env vars for %s: %w", res.spec.Name, err)}
		}
		for k, v := range rendered {
			asm.Set(envassembler.PriorityVxTools, k, v)
		}
	}

	for k, v := range req.ExtraEnv {
		asm.Set(envassembler.PriorityUserPrepend, k, v)
	}

	workingDir := req.WorkingDir
	if workingDir == "" {
		workingDir, _ = os.Getwd()
	}

	return &prepared{executablePath: execPath, argsPrefix: prefix, env: asm.Build(), workingDir: workingDir}, nil
}

// locateExecutable resolves the actual binary to run and any
// sub-command prefix, branching on what PrepareExecution (if any)
// returned.
func locateExecutable(spec types.RuntimeSpec, ver string, ens *ensured, execPrep *registry.ExecutionPrep, plat platform.Platform) (string, []string, error) {
	switch {
	case execPrep != nil && execPrep.ExecutableOverride != "":
		if _, statErr := os.Stat(execPrep.ExecutableOverride); statErr != nil {
			return "", nil, &PrepareError{Kind_: ExecutableNotFound, Runtime: spec.Name, Context_: map[string]string{"path": execPrep.ExecutableOverride}, Err: statErr}
		}
		return execPrep.ExecutableOverride, execPrep.CommandPrefix, nil

	case execPrep != nil && execPrep.UseSystemPath:
		found, lookErr := exec.LookPath(spec.Name)
		if lookErr != nil {
			return "", nil, &PrepareError{Kind_: NoExecutable, Runtime: spec.Name, Err: fmt.Errorf("%s not found on PATH after proxy activation: %w", spec.Name, lookErr)}
		}
		return found, nil, nil

	default:
		execPath, err := paths.ExecutablePath(spec.Name, ver, spec.Name, plat)
		if err != nil {
			return "", nil, &PrepareError{Kind_: NoExecutable, Runtime: spec.Name, Err: err}
		}
		if _, statErr := os.Stat(execPath); statErr == nil {
			return execPath, nil, nil
		}
		// Fall back to the installer's bin dir layout (ensure() may have
		// placed the binary there rather than the store layout, e.g.
		// when running against an existing vx.yaml registry).
		fallback := plat.AddExtension(filepath.Join(ens.installDir, spec.Name))
		if _, statErr := os.Stat(fallback); statErr != nil {
			return "", nil, &PrepareError{Kind_: ExecutableNotFound, Runtime: spec.Name, Context_: map[string]string{"path": fallback}, Err: statErr}
		}
		return fallback, nil, nil
	}
}

// prepareExecutionError classifies a PrepareExecution failure as
// ProxyNotAvailable, naming the runtime that has to be installed first:
// the BundledWith host for a bundled runtime (`vx msbuild` with no .NET
// SDK names dotnet), the first Dependencies entry for a proxy-managed
// runtime (`vx yarn` with no corepack), or the runtime itself.
func prepareExecutionError(spec types.RuntimeSpec, err error) *PrepareError {
	if spec.BundledWith != "" {
		return &PrepareError{
			Kind_: ProxyNotAvailable, Runtime: spec.Name,
			Context_: map[string]string{"proxy": spec.BundledWith, "hint": fmt.Sprintf("vx install %s", spec.BundledWith)},
			Err:     err,
		}
	}
	proxy := spec.Name
	if spec.ProxyManaged && len(spec.Dependencies) > 0 {
		proxy = spec.Dependencies[0].Runtime
	}
	return &PrepareError{
		Kind_: ProxyNotAvailable, Runtime: spec.Name,
		Context_: map[string]string{"proxy": proxy, "hint": fmt.Sprintf("vx install %s", proxy)},
		Err:     err,
	}
}

// checkPlatformSupport reports an error when spec declares asset
// patterns but none of them matches the current platform: there is no
// way resolve() could ever produce a download for it.
func checkPlatformSupport(spec types.RuntimeSpec) error {
	if len(spec.AssetPatterns) == 0 {
		return nil
	}
	_, err := manager.ResolveAssetPattern(spec.AssetPatterns, platform.Current())
	return err
}

func platformKey() string {
	return platform.Current().String()
}

// lockedVersion looks up name's entry in vx-lock.yaml, if one exists.
// A missing lock file is not an error here: it just means there is no
// locked version to prefer, and the second return is false.
func lockedVersion(name string) (version string, found bool, err error) {
	lockFile, err := config.LoadLockFile("")
	if err != nil {
		return "", false, nil
	}
	entry, ok := lockFile.Dependencies[name]
	if !ok {
		return "", false, nil
	}
	return entry.Version, true, nil
}
