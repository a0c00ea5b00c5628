package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the package list without resolving anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors, _, err := ctx.prepare(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d packages\n", len(descriptors))
			return nil
		},
	}
}
