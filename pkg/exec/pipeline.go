// Package exec implements vx's transparent execution pipeline: the
// four-phase resolve -> ensure -> prepare -> execute flow that turns
// "vx node server.js" into a spawned node process with the right
// version on PATH and the right environment assembled around it.
package exec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/flanksource/clicky/task"
	"github.com/loonghao/vx/pkg/config"
	"github.com/loonghao/vx/pkg/depgraph"
	"github.com/loonghao/vx/pkg/installer"
	"github.com/loonghao/vx/pkg/types"
	"github.com/loonghao/vx/pkg/version"
)

// Request is everything the pipeline needs to run one tool invocation.
type Request struct {
	RuntimeName string
	Constraint  string // version constraint from project config/CLI override; "" means the vx-lock.yaml entry, else "latest"
	Args        []string
	WorkingDir  string
	ExtraEnv    map[string]string
	Timeout     time.Duration
	// UseSystemPath makes ensure() prefer an already-installed system
	// binary (one of RuntimeSpec.PreInstalled) over the managed store,
	// skipping install entirely when one is found on PATH.
	UseSystemPath bool
}

// ResolveKind enumerates the ways the resolve phase can fail.
type ResolveKind string

const (
	RuntimeNotFound       ResolveKind = "RuntimeNotFound"
	VersionNotFound       ResolveKind = "VersionNotFound"
	NoLockedVersion       ResolveKind = "NoLockedVersion"
	DependencyCycle       ResolveKind = "DependencyCycle"
	PlatformNotSupported  ResolveKind = "PlatformNotSupported"
	UnknownWithDependency ResolveKind = "UnknownWithDependency"
)

// ResolveError wraps a failure to pick a concrete version for a runtime.
type ResolveError struct {
	Kind_   ResolveKind
	Runtime string
	Context_ map[string]string
	Err     error
}

func (e *ResolveError) Error() string { return fmt.Sprintf("resolve %s: %v", e.Runtime, e.Err) }
func (e *ResolveError) Unwrap() error { return e.Err }

// EnsureKind enumerates the ways the ensure phase can fail.
type EnsureKind string

const (
	AutoInstallDisabled    EnsureKind = "AutoInstallDisabled"
	NotInstalled           EnsureKind = "NotInstalled"
	InstallFailed          EnsureKind = "InstallFailed"
	DependencyInstallFailed EnsureKind = "DependencyInstallFailed"
	DownloadFailed         EnsureKind = "DownloadFailed"
	EnsureTimeout          EnsureKind = "Timeout"
	NoVersionsFound        EnsureKind = "NoVersionsFound"
)

// EnsureError wraps a failure to have the resolved version installed.
type EnsureError struct {
	Kind_   EnsureKind
	Runtime string
	Version string
	Context_ map[string]string
	Err     error
}

func (e *EnsureError) Error() string {
	return fmt.Sprintf("ensure %s@%s installed: %v", e.Runtime, e.Version, e.Err)
}
func (e *EnsureError) Unwrap() error { return e.Err }

// PrepareKind enumerates the ways the prepare phase can fail.
type PrepareKind string

const (
	UnknownRuntime      PrepareKind = "UnknownRuntime"
	NoExecutable        PrepareKind = "NoExecutable"
	ExecutableNotFound  PrepareKind = "ExecutableNotFound"
	EnvironmentFailed   PrepareKind = "EnvironmentFailed"
	ProxyNotAvailable   PrepareKind = "ProxyNotAvailable"
	DependencyRequired  PrepareKind = "DependencyRequired"
	ProxyRetryFailed    PrepareKind = "ProxyRetryFailed"
)

// PrepareError wraps a failure to build the execution environment.
type PrepareError struct {
	Kind_   PrepareKind
	Runtime string
	Context_ map[string]string
	Err     error
}

func (e *PrepareError) Error() string { return fmt.Sprintf("prepare %s environment: %v", e.Runtime, e.Err) }
func (e *PrepareError) Unwrap() error { return e.Err }

// ExecuteKind enumerates the ways the execute phase can fail.
type ExecuteKind string

const (
	SpawnFailed          ExecuteKind = "SpawnFailed"
	ExecuteTimeout       ExecuteKind = "Timeout"
	Killed               ExecuteKind = "Killed"
	BundleExecutionFailed ExecuteKind = "BundleExecutionFailed"
)

// ExecuteError wraps a failure launching or waiting on the process
// itself, as opposed to a non-zero exit from a successfully launched
// process (which is reported via Result.ExitCode, not an error).
type ExecuteError struct {
	Kind_   ExecuteKind
	Runtime string
	Context_ map[string]string
	Err     error
}

func (e *ExecuteError) Error() string { return fmt.Sprintf("execute %s: %v", e.Runtime, e.Err) }
func (e *ExecuteError) Unwrap() error { return e.Err }

// resolved is the output of the resolve phase.
type resolved struct {
	spec    types.RuntimeSpec
	version string
}

// ensured is the output of the ensure phase.
type ensured struct {
	installDir string
	installed  bool // true if this call performed a fresh install
}

// prepared is the output of the prepare phase.
type prepared struct {
	executablePath string
	argsPrefix     []string // prepended to req.Args, e.g. ["msbuild"] for a bundled tool invoked as "dotnet msbuild ..."
	env            []string
	workingDir     string
}

// Result describes a completed run.
type Result struct {
	Runtime    string
	Version    string
	ExitCode   int
	Installed  bool // whether ensure had to install the runtime
}

// Pipeline runs requests through resolve -> ensure -> prepare -> execute.
type Pipeline struct {
	Installer *installer.Installer
	DepsConfig *types.DepsConfig
}

// New builds a Pipeline wired to the global project/registry config.
// Any installer.InstallOption passed (bin dir, cache mode, etc.) is
// forwarded to the underlying Installer so CLI flags reach ensure().
func New(opts ...installer.InstallOption) *Pipeline {
	depsConfig := config.GetGlobalRegistry()
	return &Pipeline{
		Installer:  installer.NewWithConfig(depsConfig, opts...),
		DepsConfig: depsConfig,
	}
}

// Run drives a Request through all four phases.
func (p *Pipeline) Run(ctx context.Context, req Request, t *task.Task) (*Result, error) {
	res, err := p.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	ens, err := p.ensure(ctx, res, req, t)
	if err != nil {
		return nil, err
	}

	prep, err := p.prepare(ctx, res, ens, req)
	if err != nil {
		return nil, err
	}

	exitCode, err := p.execute(ctx, prep, req)
	if err != nil {
		return nil, err
	}

	return &Result{
		Runtime:   req.RuntimeName,
		Version:   res.version,
		ExitCode:  exitCode,
		Installed: ens.installed,
	}, nil
}

// resolve picks the RuntimeSpec and a concrete version satisfying
// req.Constraint (CLI override > vx-lock.yaml > "latest"), checking
// the dependency graph for cycles and the asset patterns for platform
// support before ever touching the network for a version list.
func (p *Pipeline) resolve(ctx context.Context, req Request) (*resolved, error) {
	if p.DepsConfig == nil {
		return nil, &ResolveError{Kind_: RuntimeNotFound, Runtime: req.RuntimeName, Err: fmt.Errorf("no registry configured")}
	}

	spec, ok := p.DepsConfig.Registry[req.RuntimeName]
	if !ok {
		return nil, &ResolveError{Kind_: RuntimeNotFound, Runtime: req.RuntimeName, Err: fmt.Errorf("runtime %q is not in the registry", req.RuntimeName)}
	}

	if err := p.checkDependencyCycle(spec); err != nil {
		if _, ok := err.(*depgraph.CycleError); ok {
			return nil, &ResolveError{Kind_: DependencyCycle, Runtime: spec.Name, Err: err}
		}
		return nil, &ResolveError{Kind_: UnknownWithDependency, Runtime: spec.Name, Err: err}
	}

	if err := checkPlatformSupport(spec); err != nil {
		return nil, &ResolveError{Kind_: PlatformNotSupported, Runtime: spec.Name, Context_: map[string]string{"platform": platformKey()}, Err: err}
	}

	constraint, fromLock := req.Constraint, false
	if constraint == "" {
		locked, hasLock, err := lockedVersion(spec.Name)
		switch {
		case err == nil && hasLock:
			constraint, fromLock = locked, true
		case p.requireLock():
			return nil, &ResolveError{Kind_: NoLockedVersion, Runtime: spec.Name, Err: fmt.Errorf("no vx-lock.yaml entry for %s and require_lock is set", spec.Name)}
		default:
			constraint = "latest"
		}
	}
	if _, err := version.ParseConstraint(constraint); err != nil && constraint != "latest" && constraint != "stable" {
		return nil, &ResolveError{Kind_: VersionNotFound, Runtime: spec.Name, Context_: map[string]string{"constraint": constraint}, Err: fmt.Errorf("invalid version constraint %q: %w", constraint, err)}
	}

	resolvedVersion, err := p.Installer.ResolveVersion(ctx, spec, constraint)
	if err != nil {
		kind := VersionNotFound
		if fromLock {
			kind = NoLockedVersion
		}
		return nil, &ResolveError{Kind_: kind, Runtime: spec.Name, Context_: map[string]string{"constraint": constraint}, Err: err}
	}

	return &resolved{spec: spec, version: resolvedVersion}, nil
}

// checkDependencyCycle builds the subgraph reachable from spec through
// RuntimeSpec.Dependencies and asks depgraph to topo-sort it, the same
// cycle/conflict check pkg/installer.dependencyInstallOrder runs over
// a project's full dependency set, scoped here to just the one
// runtime's transitive requirements.
func (p *Pipeline) checkDependencyCycle(spec types.RuntimeSpec) error {
	g := depgraph.New()
	seen := map[string]bool{}
	queue := []types.RuntimeSpec{spec}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		g.AddTool(s)
		for _, dep := range s.Dependencies {
			if depSpec, ok := p.DepsConfig.Registry[dep.Runtime]; ok && !seen[dep.Runtime] {
				queue = append(queue, depSpec)
			}
		}
	}
	_, err := g.Resolve()
	return err
}

// requireLock reports whether the project's Settings demand a
// vx-lock.yaml entry before resolve() will fall back to "latest".
func (p *Pipeline) requireLock() bool {
	return p.DepsConfig != nil && p.DepsConfig.Settings.RequireLock
}

// autoInstallEnabled reports whether ensure() may install a missing
// runtime, per the project's Settings.AutoInstall (nil means enabled).
func (p *Pipeline) autoInstallEnabled() bool {
	if p.DepsConfig == nil || p.DepsConfig.Settings.AutoInstall == nil {
		return true
	}
	return *p.DepsConfig.Settings.AutoInstall
}

// hostFor returns the registry entry that actually has to be
// installed to run spec: the BundledWith host for a bundled runtime,
// the first Dependencies entry for a proxy-managed runtime (its proxy
// lives inside that host, e.g. corepack inside node), or spec itself.
// A proxy-managed runtime with no Dependencies entry has no host and
// reports false. The second return is the version constraint to
// install the host at.
func (p *Pipeline) hostFor(spec types.RuntimeSpec, requestedVersion string) (types.RuntimeSpec, string, bool) {
	if spec.BundledWith != "" {
		host, ok := p.DepsConfig.Registry[spec.BundledWith]
		return host, "latest", ok
	}
	if spec.ProxyManaged && len(spec.Dependencies) > 0 {
		dep := spec.Dependencies[0]
		host, ok := p.DepsConfig.Registry[dep.Runtime]
		constraint := dep.Constraint
		if constraint == "" {
			constraint = "latest"
		}
		return host, constraint, ok
	}
	if spec.ProxyManaged {
		return types.RuntimeSpec{}, "", false
	}
	return spec, requestedVersion, true
}

// ensure makes sure the resolved version is installed, installing it
// via the installer if it is missing and auto_install allows it.
// Bundled and proxy-managed runtimes are never installed directly:
// ensure instead installs the host they run inside/through.
func (p *Pipeline) ensure(ctx context.Context, res *resolved, req Request, t *task.Task) (*ensured, error) {
	if req.UseSystemPath {
		if ens, ok := ensureFromSystemPath(res.spec); ok {
			return ens, nil
		}
	}

	host, hostVersion, ok := p.hostFor(res.spec, res.version)
	if !ok {
		return nil, &EnsureError{
			Kind_: DependencyInstallFailed, Runtime: res.spec.Name, Version: res.version,
			Context_: map[string]string{"host": res.spec.BundledWith},
			Err:     fmt.Errorf("%s has no registered host runtime", res.spec.Name),
		}
	}

	if !p.Installer.HasVersionInstalled(host.Name, hostVersion) {
		if !p.autoInstallEnabled() {
			if host.Name == res.spec.Name {
				return nil, &EnsureError{Kind_: AutoInstallDisabled, Runtime: res.spec.Name, Version: res.version, Err: fmt.Errorf("%s@%s is not installed and auto_install is disabled", res.spec.Name, res.version)}
			}
			return nil, &EnsureError{
				Kind_: NotInstalled, Runtime: res.spec.Name, Version: res.version,
				Context_: map[string]string{"hint": fmt.Sprintf("vx install %s", host.Name)},
				Err:     fmt.Errorf("%s (required by %s) is not installed and auto_install is disabled", host.Name, res.spec.Name),
			}
		}
	}

	ens, err := p.ensureSpec(host, hostVersion, t)
	if err != nil {
		dependency := host.Name != res.spec.Name
		return nil, &EnsureError{Kind_: classifyEnsureFailure(err, dependency), Runtime: res.spec.Name, Version: res.version, Context_: map[string]string{"host": host.Name}, Err: err}
	}
	return ens, nil
}

// classifyEnsureFailure maps an install failure to its enumerated
// EnsureKind. isDependency is true when the failing install is for a
// runtime's host (bundled/proxy-managed), not the runtime itself.
func classifyEnsureFailure(err error, isDependency bool) EnsureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return EnsureTimeout
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no versions") || strings.Contains(msg, "no stable versions"):
		return NoVersionsFound
	case strings.Contains(msg, "download") || strings.Contains(msg, "checksum"):
		return DownloadFailed
	}
	if isDependency {
		return DependencyInstallFailed
	}
	return InstallFailed
}

// ensureFromSystemPath looks up spec.PreInstalled binary names on PATH,
// reporting a hit as already-installed so the pipeline never touches
// the vx store for it.
func ensureFromSystemPath(spec types.RuntimeSpec) (*ensured, bool) {
	names := spec.PreInstalled
	if len(names) == 0 {
		names = []string{spec.Name}
	}
	for _, name := range names {
		if found, err := exec.LookPath(name); err == nil {
			return &ensured{installDir: filepath.Dir(found), installed: false}, true
		}
	}
	return nil, false
}

func (p *Pipeline) ensureSpec(spec types.RuntimeSpec, requestedVersion string, t *task.Task) (*ensured, error) {
	result, err := p.Installer.InstallWithResult(spec.Name, requestedVersion, t)
	if err != nil {
		return nil, err
	}
	return &ensured{
		installDir: result.BinDir,
		installed:  result.Status == types.InstallStatusInstalled || result.Status == types.InstallStatusForcedInstalled,
	}, nil
}

// execute spawns the prepared command, forwarding SIGTERM/SIGINT to
// the child and escalating to SIGKILL after a grace period if the
// child does not exit, then waits and returns its exit code.
func (p *Pipeline) execute(ctx context.Context, prep *prepared, req Request) (int, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	fullArgs := append(append([]string{}, prep.argsPrefix...), req.Args...)
	cmd := exec.CommandContext(ctx, prep.executablePath, fullArgs...)
	cmd.Env = prep.env
	cmd.Dir = prep.workingDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		kind := SpawnFailed
		if len(prep.argsPrefix) > 0 {
			kind = BundleExecutionFailed
		}
		return -1, &ExecuteError{Kind_: kind, Runtime: req.RuntimeName, Context_: map[string]string{"executable": prep.executablePath}, Err: fmt.Errorf("start %s: %w", prep.executablePath, err)}
	}

	if runtime.GOOS != "windows" {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()

		killedByGrace := false
		for {
			select {
			case sig := <-sigCh:
				_ = cmd.Process.Signal(sig)
				go func() {
					time.Sleep(5 * time.Second)
					killedByGrace = true
					_ = cmd.Process.Kill()
				}()
			case err := <-done:
				return executeOutcome(ctx, req.RuntimeName, cmd, err, killedByGrace)
			}
		}
	}

	err := cmd.Wait()
	return executeOutcome(ctx, req.RuntimeName, cmd, err, false)
}

// executeOutcome turns cmd.Wait's result into an exit code, or a
// typed ExecuteError when the process never produced one: the
// pipeline's own context deadline firing (ExecuteTimeout) or the
// grace-period SIGKILL following a forwarded signal (Killed).
func executeOutcome(ctx context.Context, runtimeName string, cmd *exec.Cmd, err error, killedByGrace bool) (int, error) {
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return -1, &ExecuteError{Kind_: ExecuteTimeout, Runtime: runtimeName, Err: err}
	}
	if killedByGrace {
		return -1, &ExecuteError{Kind_: Killed, Runtime: runtimeName, Err: err}
	}
	return -1, &ExecuteError{Kind_: SpawnFailed, Runtime: runtimeName, Err: err}
}
