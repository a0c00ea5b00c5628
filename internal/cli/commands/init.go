package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pirakansa/depot/internal/cli/manifest"
	"github.com/pirakansa/depot/internal/cli/shared"
	"github.com/spf13/cobra"
)

func newInitCmd(ctx *appContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a depot.yaml template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifest.IsRemoteConfigLocation(ctx.configPath) {
				return fmt.Errorf("cannot initialize remote package list %s", ctx.configPath)
			}
			if force {
				backupPath, err := shared.BackupFile(ctx.configPath, time.Now())
				if err != nil {
					return err
				}
				if backupPath != "" {
					if err := os.Remove(ctx.configPath); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "backup:", backupPath)
				}
			}
			if err := writeIfNotExists(ctx.configPath, packageListTemplate); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "initialized:", ctx.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing file after a timestamped backup")
	return cmd
}

func writeIfNotExists(path, content string) error {
	_, err := os.Stat(path)
	if err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

const packageListTemplate = `version: 1
packages:
  # Archive download. The archive is cached under depends/pkgs and reused
  # on later runs.
  - name: srt
    version: 1.5.4
    pkg_file: srt-1.5.4.tar.gz
    http_download_url: https://github.com/Haivision/srt/archive/refs/tags/v1.5.4.tar.gz
    build_command: |
      cd srt-1.5.4 && mkdir -p cmake_build && cd cmake_build &&
      cmake -DCMAKE_INSTALL_PREFIX=$DST_PATH .. && make -j 8 && make install
    check_files:
      - lib/libsrt.a
  # Git source. Build commands run inside the clone with DST_PATH,
  # SRC_FILE_PATH, PKG_NAME and RESOLVED_PATH set.
  - name: fmt
    git_source_url: https://github.com/fmtlib/fmt.git
    build_command: |
      cmake -B build -DCMAKE_INSTALL_PREFIX=$DST_PATH && cmake --build build --target install
    check_files:
      - include/fmt/core.h
`
