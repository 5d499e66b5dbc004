// Package project discovers the project a command is running inside
// and exposes the single source of truth vx's resolve phase consults:
// a locked version, if one exists, beats a configured constraint,
// which in turn beats asking the resolver for "latest". This mirrors
// how the teacher's cmd/ layer calls config.FindConfigFile and
// config.FindLockFile independently; ProjectContext merges both
// lookups behind one type so pkg/exec doesn't need to know about
// vx.yaml and vx-lock.yaml separately.
package project

import (
	"fmt"
	"path/filepath"

	"github.com/loonghao/vx/pkg/config"
	"github.com/loonghao/vx/pkg/types"
)

// Context describes where a command's project configuration (if any)
// was found and what it says about tool versions.
type Context struct {
	// Root is the directory vx.yaml lives in. Empty for Global.
	Root string
	// ConfigPath is the absolute path to vx.yaml, empty for Global.
	ConfigPath string
	// LockPath is the absolute path to vx-lock.yaml, empty if absent.
	LockPath string

	Config *types.DepsConfig
	Lock   *types.LockFile
}

// IsGlobal reports whether no project config file was found walking
// up from the working directory, i.e. there is no nearby vx.yaml.
func (c *Context) IsGlobal() bool {
	return c == nil || c.ConfigPath == ""
}

// Discover walks up from startDir (os.Getwd() if empty) looking for
// vx.yaml, then for vx-lock.yaml, and loads whichever it finds. A
// missing vx.yaml is not an error: it yields a Global context so
// "vx node" still works from outside any project by falling through
// to resolver-latest.
func Discover(startDir string) (*Context, error) {
	configPath, err := findUpward(startDir, config.DepsFile)
	if err != nil {
		return &Context{}, nil
	}

	cfg, err := config.LoadDepsConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", configPath, err)
	}

	ctx := &Context{
		Root:       filepath.Dir(configPath),
		ConfigPath: configPath,
		Config:     cfg,
	}

	lockPath, err := findUpward(startDir, config.LockFile)
	if err == nil {
		lock, err := config.LoadLockFile(lockPath)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", lockPath, err)
		}
		ctx.LockPath = lockPath
		ctx.Lock = lock
	}

	return ctx, nil
}

// EffectiveVersion returns the version request vx should resolve for
// runtimeName: the locked version if one is pinned, else the
// configured constraint, else "" (meaning "ask the resolver for
// latest").
func (c *Context) EffectiveVersion(runtimeName string) string {
	if c == nil {
		return ""
	}
	if c.Lock != nil {
		if entry, ok := c.Lock.Dependencies[runtimeName]; ok && entry.Version != "" {
			return entry.Version
		}
	}
	if c.Config != nil {
		if constraint, ok := c.Config.Dependencies[runtimeName]; ok {
			return constraint
		}
	}
	return ""
}

// Spec looks up runtimeName's RuntimeSpec in the project registry.
func (c *Context) Spec(runtimeName string) (types.RuntimeSpec, bool) {
	if c == nil || c.Config == nil {
		return types.RuntimeSpec{}, false
	}
	spec, ok := c.Config.Registry[runtimeName]
	return spec, ok
}

// NeedsLockUpdate reports whether runtimeName is configured but has
// no corresponding lock entry, or its lock entry predates a changed
// constraint (the lock was generated for a different requested
// version than vx.yaml currently asks for).
func (c *Context) NeedsLockUpdate(runtimeName string) bool {
	if c == nil || c.Config == nil {
		return false
	}
	constraint, configured := c.Config.Dependencies[runtimeName]
	if !configured {
		return false
	}
	if c.Lock == nil {
		return true
	}
	entry, locked := c.Lock.Dependencies[runtimeName]
	if !locked {
		return true
	}
	return entry.VersionCommand == "" && entry.Version == "" && constraint != ""
}

// Tools returns the set of runtime names this project declares a
// dependency on, sorted is left to the caller since DepsConfig keys a
// map.
func (c *Context) Tools() []string {
	if c == nil || c.Config == nil {
		return nil
	}
	names := make([]string, 0, len(c.Config.Dependencies))
	for name := range c.Config.Dependencies {
		names = append(names, name)
	}
	return names
}

func findUpward(startDir, filename string) (string, error) {
	dir := startDir
	if dir == "" {
		var err error
		dir, err = filepathAbsCwd()
		if err != nil {
			return "", err
		}
	}

	for {
		candidate := filepath.Join(dir, filename)
		if fileExists(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found in %s or any parent directory", filename, startDir)
		}
		dir = parent
	}
}
