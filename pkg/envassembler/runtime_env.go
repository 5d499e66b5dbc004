package envassembler

import "strings"

// SeedRuntimeVars registers the VX_<NAME>_VERSION and VX_<NAME>_HOME
// variables every activated runtime exposes to scripts that want to
// introspect which version vx picked, at PriorityVxTools so project
// and shim-level contributions can still override them.
func (a *Assembler) SeedRuntimeVars(runtimeName, version, installDir string) *Assembler {
	prefix := "VX_" + strings.ToUpper(strings.ReplaceAll(runtimeName, "-", "_")) + "_"
	a.Set(PriorityVxTools, prefix+"VERSION", version)
	a.Set(PriorityVxTools, prefix+"HOME", installDir)
	return a
}
