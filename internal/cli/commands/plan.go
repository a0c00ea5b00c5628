package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlanCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show what resolve would do without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors, roots, err := ctx.prepare(cmd.Context())
			if err != nil {
				return err
			}
			engine := ctx.newEngine(cmd, roots)
			for _, p := range engine.PlanAll(descriptors) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", p.Name, p.Action, p.Detail)
			}
			return nil
		},
	}
}
