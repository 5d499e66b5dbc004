package vx

import (
	"context"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/loonghao/vx/pkg/config"
	"github.com/loonghao/vx/pkg/installer"
	"github.com/loonghao/vx/pkg/scripts"
	"github.com/loonghao/vx/pkg/types"
)

// Re-export commonly used types for public API
type (
	InstallResult = types.InstallResult
	InstallStatus = types.InstallStatus
	VerifyStatus  = types.VerifyStatus
	VersionStatus = types.VersionStatus
	Package       = types.RuntimeSpec
	RunOptions    = scripts.RunOptions
	RunResult     = scripts.RunResult
)

// Re-export status constants
const (
	InstallStatusInstalled        = types.InstallStatusInstalled
	InstallStatusForcedInstalled  = types.InstallStatusForcedInstalled
	InstallStatusAlreadyInstalled = types.InstallStatusAlreadyInstalled
	InstallStatusFailed           = types.InstallStatusFailed

	VerifyStatusChecksumMatch    = types.VerifyStatusChecksumMatch
	VerifyStatusChecksumMismatch = types.VerifyStatusChecksumMismatch
	VerifyStatusSkipped          = types.VerifyStatusSkipped

	VersionStatusValid               = types.VersionStatusValid
	VersionStatusInvalid             = types.VersionStatusInvalid
	VersionStatusUnsupportedPlatform = types.VersionStatusUnsupportedPlatform
)

// Re-export installer options
type InstallOption = installer.InstallOption

var (
	WithBinDir         = installer.WithBinDir
	WithAppDir         = installer.WithAppDir
	WithTmpDir         = installer.WithTmpDir
	WithCacheDir       = installer.WithCacheDir
	WithForce          = installer.WithForce
	WithSkipChecksum   = installer.WithSkipChecksum
	WithStrictChecksum = installer.WithStrictChecksum
	WithDebug          = installer.WithDebug
	WithOS             = installer.WithOS
	WithTimeout        = installer.WithTimeout
	WithProgress       = installer.WithProgress
)

// Install installs a package and returns detailed installation result.
// This is the main public API for programmatic package installation.
//
// Example:
//
//	result, err := vx.Install("jq", "latest",
//	    vx.WithBinDir("/usr/local/bin"),
//	    vx.WithForce(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Pretty())
func Install(packageName, version string, opts ...InstallOption) (*InstallResult, error) {
	// Load global config
	depsConfig := config.GetGlobalRegistry()

	// Create installer with options
	inst := installer.NewWithConfig(depsConfig, opts...)

	var result *InstallResult
	var installErr error

	// Create and run installation task
	task.StartTask(packageName, func(ctx flanksourceContext.Context, t *task.Task) (interface{}, error) {
		result, installErr = inst.InstallWithResult(packageName, version, t)
		return result, installErr
	})

	// Wait for task completion
	clicky.WaitForGlobalCompletion()

	return result, installErr
}

// InstallWithContext installs a package with a context and returns detailed installation result.
// This variant allows passing a context for cancellation and timeout control.
func InstallWithContext(ctx context.Context, packageName, version string, opts ...InstallOption) (*InstallResult, error) {
	// Load global config
	depsConfig := config.GetGlobalRegistry()

	// Create installer with options
	inst := installer.NewWithConfig(depsConfig, opts...)

	var result *InstallResult
	var installErr error

	// Create task manually with context
	t := &task.Task{}

	// Run installation
	result, installErr = inst.InstallWithResult(packageName, version, t)

	return result, installErr
}

// RunPython executes a Python script with automatic runtime detection and installation.
//
// Example:
//
//	result, err := vx.RunPython("script.py", vx.RunOptions{
//	    Version: ">=3.9",
//	    Timeout: 30 * time.Second,
//	})
func RunPython(script string, opts RunOptions) (*RunResult, error) {
	return scripts.RunPython(script, opts)
}

// RunNode executes a Node.js script with automatic runtime detection and installation.
//
// Example:
//
//	result, err := vx.RunNode("server.js", vx.RunOptions{
//	    Version: ">=18.0",
//	    Timeout: 30 * time.Second,
//	})
//
// For npx execution, use the "npx:" prefix:
//
//	result, err := vx.RunNode("npx:cowsay hello", vx.RunOptions{})
func RunNode(script string, opts RunOptions) (*RunResult, error) {
	return scripts.RunNode(script, opts)
}

// RunJava executes a Java file (.java, .jar, or .class) with automatic runtime detection and installation.
//
// Example:
//
//	result, err := vx.RunJava("Main.jar", vx.RunOptions{
//	    Version: ">=17",
//	    Timeout: 30 * time.Second,
//	    Env: map[string]string{"CLASSPATH": "./lib/*"},
//	})
func RunJava(script string, opts RunOptions) (*RunResult, error) {
	return scripts.RunJava(script, opts)
}

// RunPowershell executes a PowerShell script with automatic runtime detection and installation.
//
// Example:
//
//	result, err := vx.RunPowershell("script.ps1", vx.RunOptions{
//	    Version: ">=7.0",
//	    Timeout: 30 * time.Second,
//	})
func RunPowershell(script string, opts RunOptions) (*RunResult, error) {
	return scripts.RunPowershell(script, opts)
}
