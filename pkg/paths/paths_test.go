package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/loonghao/vx/pkg/platform"
)

func TestHomeRespectsEnvOverride(t *testing.T) {
	t.Setenv(envHome, "/tmp/vx-home-test")
	home, err := Home()
	if err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	if home != "/tmp/vx-home-test" {
		t.Errorf("Home() = %q, want /tmp/vx-home-test", home)
	}
}

func TestHomeDefaultsUnderUserHome(t *testing.T) {
	t.Setenv(envHome, "")
	userHome, _ := os.UserHomeDir()
	home, err := Home()
	if err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	want := filepath.Join(userHome, ".vx")
	if home != want {
		t.Errorf("Home() = %q, want %q", home, want)
	}
}

func TestVersionDirLayout(t *testing.T) {
	t.Setenv(envHome, "/tmp/vx-home-test")
	plat := platform.Platform{OS: "linux", Arch: "amd64"}
	dir, err := VersionDir("node", "20.10.0", plat)
	if err != nil {
		t.Fatalf("VersionDir() error = %v", err)
	}
	want := "/tmp/vx-home-test/store/node/20.10.0/linux-amd64"
	if dir != want {
		t.Errorf("VersionDir() = %q, want %q", dir, want)
	}
}

func TestDownloadCacheEntryIsStableAndDistinct(t *testing.T) {
	t.Setenv(envHome, "/tmp/vx-home-test")
	a, err := DownloadCacheEntry("https://example.com/a.tar.gz")
	if err != nil {
		t.Fatalf("DownloadCacheEntry() error = %v", err)
	}
	again, _ := DownloadCacheEntry("https://example.com/a.tar.gz")
	if a != again {
		t.Errorf("DownloadCacheEntry() not stable: %q vs %q", a, again)
	}
	b, _ := DownloadCacheEntry("https://example.com/b.tar.gz")
	if a == b {
		t.Errorf("DownloadCacheEntry() collided for distinct URLs: %q", a)
	}
}

func TestExecutablePathAddsWindowsExtension(t *testing.T) {
	t.Setenv(envHome, "/tmp/vx-home-test")
	plat := platform.Platform{OS: "windows", Arch: "amd64"}
	p, err := ExecutablePath("node", "20.10.0", "node", plat)
	if err != nil {
		t.Fatalf("ExecutablePath() error = %v", err)
	}
	if filepath.Base(p) != "node.exe" {
		t.Errorf("ExecutablePath() base = %q, want node.exe", filepath.Base(p))
	}
}
