package commands

import (
	"fmt"
	"path/filepath"

	"github.com/pirakansa/depot/internal/cli/manifest"
	"github.com/pirakansa/depot/internal/cli/shared"
	"github.com/spf13/cobra"
)

func newListCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List packages with their install status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors, roots, err := ctx.prepare(cmd.Context())
			if err != nil {
				return err
			}
			engine := ctx.newEngine(cmd, roots)
			lock, err := manifest.LoadLock(filepath.Join(engine.Roots().Resolved, manifest.LockFileName))
			if err != nil {
				return newExitCodeError(shared.ExitConfigError, err)
			}

			for _, d := range descriptors {
				status := "pending"
				if engine.CanSkip(d) {
					status = "installed"
				}
				version := d.Version
				if version == "" {
					version = "-"
				}
				resolvedAt := "-"
				if entry, ok := lock.Packages[d.Name]; ok {
					resolvedAt = entry.ResolvedAt
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", d.Name, version, status, resolvedAt)
			}
			return nil
		},
	}
}
