package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flanksource/clicky/task"
	"github.com/loonghao/vx/pkg/platform"
	"github.com/loonghao/vx/pkg/template"
	"github.com/loonghao/vx/pkg/types"
)

// createWrapperScript renders pkg.WrapperScript with the install
// locations and package identity, then writes it into binDir under
// the package's name. A blank WrapperScript is a no-op: most
// RuntimeSpecs install a binary directly and never need one.
func (i *Installer) createWrapperScript(pkg types.RuntimeSpec, version, binDir string, t *task.Task) error {
	if pkg.WrapperScript == "" {
		return nil
	}

	plat := platform.Current()
	data := map[string]interface{}{
		"appDir":  i.options.AppDir,
		"binDir":  binDir,
		"name":    pkg.Name,
		"version": version,
		"os":      plat.OS,
		"arch":    plat.Arch,
	}

	content, err := template.RenderTemplate(pkg.WrapperScript, data)
	if err != nil {
		return fmt.Errorf("render wrapper script for %s: %w", pkg.Name, err)
	}

	if err := os.MkdirAll(binDir, 0755); err != nil {
		return fmt.Errorf("create bin dir %s: %w", binDir, err)
	}

	scriptPath := filepath.Join(binDir, pkg.Name)
	if t != nil {
		t.Debugf("writing wrapper script %s", scriptPath)
	}

	if err := os.WriteFile(scriptPath, []byte(content), 0755); err != nil {
		return fmt.Errorf("write wrapper script %s: %w", scriptPath, err)
	}

	return os.Chmod(scriptPath, 0755)
}
