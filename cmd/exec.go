package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/loonghao/vx/pkg/exec"
	"github.com/loonghao/vx/pkg/project"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:                "exec <tool> [args...]",
	Short:              "Resolve, install if needed, and run a tool transparently",
	Hidden:             true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	DisableFlagParsing: true,
	Args:               cobra.MinimumNArgs(1),
	RunE:               runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	name, nameVersion := args[0], args[0]
	toolArgs := args[1:]

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}

	runtimeName, constraint := splitToolSpec(name)
	_, resolvedConstraint, err := project.Resolve(wd, runtimeName, project.Override{ExplicitSpec: nameVersion})
	if err != nil {
		return fmt.Errorf("resolve project context: %w", err)
	}
	if constraint != "" {
		resolvedConstraint = constraint
	}

	pipeline := exec.New(commonInstallOptions()...)
	req := exec.Request{
		RuntimeName:   runtimeName,
		Constraint:    resolvedConstraint,
		Args:          toolArgs,
		WorkingDir:    wd,
		Timeout:       timeout,
		UseSystemPath: useSystemPath,
	}

	var result *exec.Result
	var runErr error
	task.StartTask(fmt.Sprintf("exec-%s", runtimeName), func(ctx flanksourceContext.Context, t *task.Task) (interface{}, error) {
		result, runErr = pipeline.Run(context.Background(), req, t)
		return nil, runErr
	})

	if exitCode := clicky.WaitForGlobalCompletion(); exitCode != 0 && runErr == nil {
		os.Exit(exitCode)
	}
	if runErr != nil {
		if phaseErr, ok := runErr.(exec.PhaseError); ok {
			cmd.PrintErrln(exec.Pretty(phaseErr).ANSI())
		} else {
			cmd.PrintErrln("Error:", runErr)
		}
		return runErr
	}
	if result.ExitCode != 0 {
		os.Exit(result.ExitCode)
	}
	return nil
}

// splitToolSpec splits a "tool@version" argument into its name and
// constraint; a bare "tool" yields an empty constraint.
func splitToolSpec(spec string) (name, constraint string) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == '@' {
			return spec[:i], spec[i+1:]
		}
	}
	return spec, ""
}
