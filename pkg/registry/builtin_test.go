package registry

import "testing"

func TestBuiltinsRegisterKnownRuntimes(t *testing.T) {
	for _, name := range []string{"node", "python", "go", "rust", "dotnet"} {
		rt, err := global.GetRuntime(name)
		if err != nil {
			t.Fatalf("GetRuntime(%q) error = %v", name, err)
		}
		if rt.Spec().Name != name {
			t.Errorf("GetRuntime(%q).Spec().Name = %q, want %q", name, rt.Spec().Name, name)
		}
	}
}

func TestBuiltinsBundledCompanionsResolve(t *testing.T) {
	for name, host := range map[string]string{"npm": "node", "pip": "python", "cargo": "rust", "msbuild": "dotnet"} {
		rt, err := global.GetRuntime(name)
		if err != nil {
			t.Fatalf("GetRuntime(%q) error = %v", name, err)
		}
		if rt.Spec().BundledWith != host {
			t.Errorf("GetRuntime(%q).Spec().BundledWith = %q, want %q", name, rt.Spec().BundledWith, host)
		}
	}
}
