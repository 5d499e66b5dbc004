package registry

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/loonghao/vx/pkg/config"
	"github.com/loonghao/vx/pkg/manager"
	"github.com/loonghao/vx/pkg/platform"
	"github.com/loonghao/vx/pkg/types"
)

// fetchVersionsLimit bounds how many versions specRuntime.FetchVersions
// asks its manager for; it is a general-purpose fetch, not a
// constraint-driven resolution, so it doesn't need VersionResolver's
// narrower per-constraint limits.
const fetchVersionsLimit = 100

// specRuntime is the default Runtime: one driven entirely by a
// RuntimeSpec loaded from the built-in registry (or a project's
// vx.yaml). It satisfies the full plug-in contract — FetchVersions via
// the existing pkg/manager backends, and the optional
// ExecutionPreparer/InstallabilityChecker capabilities for
// proxy-managed and bundled runtimes (RuntimeSpec.ProxyManaged /
// BundledWith) — without needing a bespoke Runtime type per tool.
type specRuntime struct {
	spec types.RuntimeSpec
}

func (r specRuntime) Spec() types.RuntimeSpec { return r.spec }

// FetchVersions is the plug-in contract's single required
// network-facing method: it delegates to whichever pkg/manager
// backend RuntimeSpec.Manager names (github_release, url, golang,
// maven, apache, direct), the same backend pkg/installer uses to
// resolve a concrete version.
func (r specRuntime) FetchVersions(ctx context.Context) ([]types.VersionInfo, error) {
	mgr, err := manager.GetGlobalRegistry().GetForPackage(r.spec)
	if err != nil {
		return nil, fmt.Errorf("fetch versions for %s: %w", r.spec.Name, err)
	}

	versions, err := mgr.DiscoverVersions(ctx, r.spec, platform.Current(), fetchVersionsLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch versions for %s: %w", r.spec.Name, err)
	}

	infos := make([]types.VersionInfo, len(versions))
	for i, v := range versions {
		infos[i] = types.VersionInfoFromVersion(v)
	}
	return infos, nil
}

// IsVersionInstallable reports false for proxy-managed runtimes (e.g.
// yarn@2+): their versions are never placed in the store directly,
// only activated through a host proxy by PrepareExecution.
func (r specRuntime) IsVersionInstallable(version string) bool {
	return !r.spec.ProxyManaged
}

// PrepareExecution implements the proxy-managed and bundled execution
// branches of the prepare phase (spec'd in pkg/exec as the Direct /
// Proxy-managed / Bundled split). A plain runtime with neither
// ProxyManaged nor BundledWith set returns (nil, nil): the pipeline
// takes that as "no special preparation, use the Direct branch."
func (r specRuntime) PrepareExecution(ctx context.Context, pc PrepareContext) (*ExecutionPrep, error) {
	switch {
	case r.spec.ProxyManaged:
		return r.prepareProxy(ctx, pc)
	case r.spec.BundledWith != "":
		return r.prepareBundled(pc)
	default:
		return nil, nil
	}
}

// prepareProxy activates a proxy-managed version through the host
// runtime's own proxy tool (corepack for yarn/pnpm under Node >= 16.10):
// "corepack enable" followed by "corepack prepare <name>@<version> --activate".
func (r specRuntime) prepareProxy(ctx context.Context, pc PrepareContext) (*ExecutionPrep, error) {
	if pc.HostInstallDir == "" {
		return nil, fmt.Errorf("proxy host for %s is not installed", r.spec.Name)
	}

	corepackPath := platform.Current().AddExtension(filepath.Join(pc.HostInstallDir, "corepack"))
	if _, err := exec.LookPath(corepackPath); err != nil {
		return nil, fmt.Errorf("corepack not found alongside %s at %s: %w", r.spec.BundledWith, corepackPath, err)
	}

	if out, err := exec.CommandContext(ctx, corepackPath, "enable").CombinedOutput(); err != nil {
		return nil, fmt.Errorf("corepack enable: %w: %s", err, out)
	}

	spec := fmt.Sprintf("%s@%s", r.spec.Name, pc.Version)
	if out, err := exec.CommandContext(ctx, corepackPath, "prepare", spec, "--activate").CombinedOutput(); err != nil {
		return nil, fmt.Errorf("corepack prepare %s: %w: %s", spec, err, out)
	}

	return &ExecutionPrep{
		UseSystemPath: true,
		ProxyReady:    true,
		Message:       fmt.Sprintf("%s activated via corepack", spec),
	}, nil
}

// prepareBundled locates the host runtime's installed executable and
// asks the pipeline to invoke it with this runtime's name prepended
// as a sub-command (dotnet msbuild ...) instead of looking for a
// standalone binary that does not exist inside the host's install.
func (r specRuntime) prepareBundled(pc PrepareContext) (*ExecutionPrep, error) {
	if pc.HostInstallDir == "" {
		return nil, fmt.Errorf("%s is bundled with %s, which is not installed", r.spec.Name, r.spec.BundledWith)
	}

	hostExecutable := platform.Current().AddExtension(filepath.Join(pc.HostInstallDir, r.spec.BundledWith))
	return &ExecutionPrep{
		ExecutableOverride: hostExecutable,
		CommandPrefix:      []string{r.spec.Name},
		Message:            fmt.Sprintf("%s invoked via %s", r.spec.Name, r.spec.BundledWith),
	}, nil
}

// RegisterBuiltins publishes Providers for the runtimes shipped in
// pkg/config/defaults.yaml (node, python, go, rust, dotnet, and their
// bundled/proxied companions) into reg, aliasing each to its
// Ecosystem-typical companion names (npm/npx under node, pip under
// python, cargo under rust, msbuild under dotnet).
func RegisterBuiltins(reg *Registry) error {
	defaults, err := config.LoadDefaultConfig()
	if err != nil {
		return fmt.Errorf("load built-in runtime registry: %w", err)
	}

	for name, spec := range defaults.Registry {
		spec := spec
		reg.Register(&Provider{
			Name:    name,
			Aliases: spec.Aliases,
			New: func() (Runtime, error) {
				return specRuntime{spec: spec}, nil
			},
		})
	}
	return nil
}

func init() {
	if err := RegisterBuiltins(global); err != nil {
		// The embedded defaults.yaml is built into the binary; a parse
		// failure here means the binary itself is broken, not a runtime
		// condition callers can recover from.
		panic(err)
	}
}
