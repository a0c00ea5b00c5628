package commands

import (
	"errors"
	"fmt"

	"github.com/pirakansa/depot/internal/cli/shared"
	"github.com/spf13/cobra"
)

func newResolveCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Acquire, build and install every package that is not up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, ctx)
		},
	}
}

// runResolve exits zero when individual packages fail. Only an unusable
// package list or an interrupted run change the exit code.
func runResolve(cmd *cobra.Command, ctx *appContext) error {
	descriptors, roots, err := ctx.prepare(cmd.Context())
	if err != nil {
		return err
	}

	report := ctx.newEngine(cmd, roots).ResolveAll(cmd.Context(), descriptors)

	out := cmd.OutOrStdout()
	for _, res := range report.Failed() {
		fmt.Fprintf(out, "failed: %s (%s): %v\n", res.Name, res.State, res.Err)
	}
	fmt.Fprintln(out, report.Summary())

	if report.Aborted {
		return newExitCodeError(shared.ExitAborted, errors.New("resolve interrupted"))
	}
	return nil
}
