// Package registry is the plug-in home for runtimes: it holds the set
// of RuntimeSpecs vx knows how to resolve, install and execute, each
// published by a Provider. Providers are registered eagerly at
// startup (cheap: a name + factory func), but the Runtime a provider
// builds is only materialized the first time something actually asks
// for it — O(runtimes used), not O(runtimes registered).
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/loonghao/vx/pkg/types"
)

// Runtime is one installable, executable tool as seen by the rest of
// vx: its static identity (RuntimeSpec) plus the single required
// network-facing method the plug-in contract demands of every
// provider. Everything else a runtime can customize (execution
// preparation for proxy-managed/bundled tools, post-extract hooks,
// installability checks) is expressed as an optional capability
// interface below and probed for with a type assertion, the same way
// the teacher's pkg/manager treats checksum verification and asset
// filtering as optional manager capabilities.
type Runtime interface {
	// Spec returns the static identity and policy for this runtime.
	Spec() types.RuntimeSpec
	// FetchVersions is the single required network-facing method: it
	// returns every version the runtime's source currently publishes.
	FetchVersions(ctx context.Context) ([]types.VersionInfo, error)
}

// ExecutionPrep is what a runtime's PrepareExecution returns when it
// wants to override how the pipeline's execute phase runs: a
// proxy-managed runtime (yarn via corepack) sets UseSystemPath/ProxyReady;
// a bundled runtime (msbuild via the .NET SDK host) sets
// ExecutableOverride/CommandPrefix.
type ExecutionPrep struct {
	ExecutableOverride string
	CommandPrefix      []string
	UseSystemPath      bool
	ProxyReady         bool
	Message            string
}

// PrepareContext carries the state only the pipeline (not the
// registry) has at prepare time: which version is being activated and
// where its host runtime (BundledWith, or the proxy's host for a
// proxy-managed runtime) landed in the store.
type PrepareContext struct {
	Version        string
	HostInstallDir string
}

// ExecutionPreparer is implemented by runtimes that are not invoked by
// running their own store-installed binary directly: proxy-managed
// runtimes (is_version_installable == false, activated through a host
// proxy such as corepack) and bundled runtimes (shipped inside another
// runtime's install, e.g. msbuild inside the .NET SDK).
type ExecutionPreparer interface {
	PrepareExecution(ctx context.Context, pc PrepareContext) (*ExecutionPrep, error)
}

// InstallabilityChecker is implemented by runtimes where at least one
// version cannot be installed directly into the store (proxy-managed
// runtimes always answer false; most runtimes need not implement this
// at all, since the default is "every version is installable").
type InstallabilityChecker interface {
	IsVersionInstallable(version string) bool
}

// PostExtractHook is implemented by runtimes that need to run a step
// right after their archive is extracted but before the binary is
// placed into BinDir — for example flattening an archive that unpacks
// into a version-stamped directory whose name can't be expressed as a
// binary_path template. None of the built-in runtimes need it today
// (their layouts are template-able), but installer.go probes for it on
// every archive install so a project-registered provider can use it.
type PostExtractHook interface {
	PostExtract(installPath string) error
}

// Factory lazily builds the Runtime for a Provider. It is called at
// most once per Provider; the result is cached.
type Factory func() (Runtime, error)

// Provider is a registrable source of one Runtime, keyed by the
// runtime's canonical name plus any aliases it also answers to (e.g.
// the node provider answers to "node", "npm" and "npx").
type Provider struct {
	Name    string
	Aliases []string
	New     Factory
}

// Registry is the process-wide catalog of providers and the runtimes
// they have (lazily) produced.
type Registry struct {
	mu        sync.Mutex
	providers map[string]*Provider // canonical name -> provider
	aliases   map[string]string    // alias -> canonical name
	runtimes  map[string]Runtime   // canonical name -> materialized runtime
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*Provider),
		aliases:   make(map[string]string),
		runtimes:  make(map[string]Runtime),
	}
}

// Register adds a provider under its canonical name and aliases. A
// later registration claiming an alias already owned by another
// provider wins and logs a warning; this matches how the teacher's
// manager/plugin registries resolve name collisions (last write wins).
func (r *Registry) Register(p *Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.providers[p.Name]; ok && existing != p {
		logrus.Warnf("registry: provider %q redefined", p.Name)
	}
	r.providers[p.Name] = p
	delete(r.runtimes, p.Name) // invalidate any cached instance

	for _, alias := range p.Aliases {
		if owner, ok := r.aliases[alias]; ok && owner != p.Name {
			logrus.Warnf("registry: alias %q moved from provider %q to %q", alias, owner, p.Name)
		}
		r.aliases[alias] = p.Name
	}
}

// canonicalName resolves a lookup key (name or alias) to the
// provider's canonical name. Caller must hold r.mu.
func (r *Registry) canonicalName(name string) (string, bool) {
	if _, ok := r.providers[name]; ok {
		return name, true
	}
	if canon, ok := r.aliases[name]; ok {
		return canon, true
	}
	return "", false
}

// GetRuntime resolves name (a canonical name or alias) to its Runtime,
// materializing it via the provider's Factory on first use.
func (r *Registry) GetRuntime(name string) (Runtime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	canon, ok := r.canonicalName(name)
	if !ok {
		return nil, &ErrRuntimeNotFound{Name: name, Known: r.runtimeNamesLocked()}
	}

	if rt, ok := r.runtimes[canon]; ok {
		return rt, nil
	}

	provider := r.providers[canon]
	rt, err := provider.New()
	if err != nil {
		return nil, fmt.Errorf("materialize runtime %q: %w", canon, err)
	}
	r.runtimes[canon] = rt
	return rt, nil
}

// Providers returns all registered providers, sorted by name.
func (r *Registry) Providers() []*Provider {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RuntimeNames returns the canonical names of every registered
// provider, sorted.
func (r *Registry) RuntimeNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runtimeNamesLocked()
}

func (r *Registry) runtimeNamesLocked() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportedRuntimes reports whether every runtime named survives a
// lookup (by canonical name or alias), without materializing any of
// them. Useful for validating a project's tool list up front.
func (r *Registry) SupportedRuntimes(names ...string) (unsupported []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.canonicalName(name); !ok {
			unsupported = append(unsupported, name)
		}
	}
	return unsupported
}

// ErrRuntimeNotFound is returned when a name does not resolve to any
// registered provider or alias.
type ErrRuntimeNotFound struct {
	Name  string
	Known []string
}

func (e *ErrRuntimeNotFound) Error() string {
	return fmt.Sprintf("runtime %q is not registered (known: %v)", e.Name, e.Known)
}

// global is the process-wide registry populated by provider init()
// side-effect imports, mirroring how pkg/manager and pkg/plugin expose
// a package-level global alongside the Registry type.
var global = NewRegistry()

// Register adds a provider to the global registry.
func Register(p *Provider) { global.Register(p) }

// GetGlobalRegistry returns the global runtime registry.
func GetGlobalRegistry() *Registry { return global }
