// Package paths centralizes the on-disk layout vx uses for its global
// store, download cache, shims and per-project bin directories. All
// other packages that need to know where something lives on disk go
// through here instead of constructing paths themselves.
package paths

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loonghao/vx/pkg/platform"
)

const envHome = "VX_HOME"

// Home returns the vx root directory: $VX_HOME if set, otherwise
// ~/.vx. The directory is not created by this function.
func Home() (string, error) {
	if home := os.Getenv(envHome); home != "" {
		if filepath.IsAbs(home) {
			return home, nil
		}
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", envHome, err)
		}
		return abs, nil
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(userHome, ".vx"), nil
}

// StoreDir returns the root of the content-addressed install store,
// $VX_HOME/store.
func StoreDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "store"), nil
}

// VersionDir returns the directory a specific runtime version is (or
// will be) installed into: store/<runtime>/<version>/<os>-<arch>.
func VersionDir(runtimeName, version string, plat platform.Platform) (string, error) {
	store, err := StoreDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(store, runtimeName, version, plat.String()), nil
}

// StagingDir returns the directory extraction happens into before the
// atomic promote-by-rename into VersionDir. It lives alongside the
// final version directory so the rename stays within one filesystem.
func StagingDir(runtimeName, version string, plat platform.Platform) (string, error) {
	store, err := StoreDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(store, runtimeName, version, ".staging-"+plat.String()), nil
}

// ExecutablePath returns the path to the primary executable within an
// installed version directory, honoring the platform's binary
// extension (.exe on Windows).
func ExecutablePath(runtimeName, version, binaryName string, plat platform.Platform) (string, error) {
	dir, err := VersionDir(runtimeName, version, plat)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, plat.AddExtension(binaryName)), nil
}

// DownloadCacheDir returns $VX_HOME/cache/downloads, the root of the
// content-addressed download cache (see pkg/cache).
func DownloadCacheDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "cache", "downloads"), nil
}

// DownloadCacheEntry returns the cache directory for one URL, keyed by
// sha256(url) so arbitrarily long or special-character URLs map to a
// fixed-length, filesystem-safe name.
func DownloadCacheEntry(url string) (string, error) {
	dir, err := DownloadCacheDir()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(dir, fmt.Sprintf("%x", sum[:16])), nil
}

// VersionCacheDir returns $VX_HOME/cache/versions, the root of the
// per-runtime TTL version-list cache (see pkg/cache.VersionCache).
func VersionCacheDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "cache", "versions"), nil
}

// GlobalPackageDir returns the install directory for an ecosystem
// package manager proxy install (e.g. a pipx-style tool installed
// under a language ecosystem rather than directly into the store):
// $VX_HOME/packages/<ecosystem>/<package>/<version>.
func GlobalPackageDir(ecosystem, pkg, version string) (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "packages", ecosystem, pkg, version), nil
}

// ShimDir returns $VX_HOME/shims, the directory of generated
// forwarder scripts that vx installs onto the user's PATH.
func ShimDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "shims"), nil
}

// ProjectBinDir returns <projectRoot>/.vx/bin, a project-local
// directory that a project may prepend onto PATH for tool shims scoped
// to that project alone.
func ProjectBinDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".vx", "bin")
}

// EnsureDirs creates Home, StoreDir, DownloadCacheDir, VersionCacheDir
// and ShimDir (and their parents) if they do not already exist.
func EnsureDirs() error {
	dirs := []func() (string, error){Home, StoreDir, DownloadCacheDir, VersionCacheDir, ShimDir}
	for _, f := range dirs {
		dir, err := f()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
