package project

// Override captures the CLI-level version-selection flags: --global
// ignores any discovered project entirely, --project <root> pins
// discovery to a specific directory instead of walking up from the
// working directory, and an explicit "tool@version" argument beats
// both.
type Override struct {
	Global       bool
	ProjectRoot  string
	ExplicitSpec string // "tool@version" form, empty if not given
}

// Resolve combines startDir discovery with the override flags to
// produce the Context and the version request for runtimeName that
// pkg/exec should resolve against.
func Resolve(startDir string, runtimeName string, ov Override) (*Context, string, error) {
	if ov.Global {
		return &Context{}, explicitVersion(ov.ExplicitSpec), nil
	}

	dir := startDir
	if ov.ProjectRoot != "" {
		dir = ov.ProjectRoot
	}

	ctx, err := Discover(dir)
	if err != nil {
		return nil, "", err
	}

	if v := explicitVersion(ov.ExplicitSpec); v != "" {
		return ctx, v, nil
	}

	return ctx, ctx.EffectiveVersion(runtimeName), nil
}

func explicitVersion(spec string) string {
	for i := 0; i < len(spec); i++ {
		if spec[i] == '@' {
			return spec[i+1:]
		}
	}
	return ""
}
