package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pirakansa/depot/internal/cli/fetch"
	"github.com/pirakansa/depot/internal/cli/logger"
	"github.com/pirakansa/depot/internal/cli/manifest"
	"github.com/pirakansa/depot/internal/cli/resolver"
	"github.com/pirakansa/depot/internal/cli/shared"
	"github.com/spf13/cobra"
)

type appContext struct {
	configPath  string
	rootDir     string
	pkgDir      string
	resolvedDir string
	buildDir    string
	verbose     bool
	noProgress  bool
	only        []string
}

func NewRootCmd(version string) *cobra.Command {
	ctx := &appContext{}
	cmd := &cobra.Command{
		Use:   "depot",
		Short: "Declarative third-party dependency resolver",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logger.New(cmd.ErrOrStderr(), ctx.verbose))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, ctx)
		},
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&ctx.configPath, "config", manifest.DefaultConfigName, "path or URL of the package list")
	flags.StringVar(&ctx.rootDir, "root", "", "base directory of the depends/ tree (default: the package list's directory)")
	flags.StringVar(&ctx.pkgDir, "pkg-dir", "", "override the archive cache directory")
	flags.StringVar(&ctx.resolvedDir, "resolved-dir", "", "override the install directory")
	flags.StringVar(&ctx.buildDir, "build-dir", "", "override the source tree directory")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&ctx.noProgress, "no-progress", false, "disable download progress bars")
	flags.StringArrayVar(&ctx.only, "only", nil, "resolve only the named package (repeatable)")

	cmd.AddCommand(newResolveCmd(ctx))
	cmd.AddCommand(newPlanCmd(ctx))
	cmd.AddCommand(newListCmd(ctx))
	cmd.AddCommand(newValidateCmd(ctx))
	cmd.AddCommand(newInitCmd(ctx))
	cmd.AddCommand(newVersionCmd(version))

	return cmd
}

func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return mapExitCode(err)
	}
	return shared.ExitOK
}

func mapExitCode(err error) int {
	var codeErr *exitCodeError
	if errors.As(err, &codeErr) {
		return codeErr.code
	}
	return shared.ExitFailure
}

// loadPackageList returns the package list and the directory relative paths
// in it are resolved against. Remote lists resolve against the working
// directory.
func loadPackageList(ctx context.Context, configPath string) (*manifest.PackageList, string, error) {
	if manifest.IsRemoteConfigLocation(configPath) {
		cfg, err := manifest.LoadPackageList(ctx, configPath)
		if err != nil {
			return nil, "", newExitCodeError(shared.ExitConfigError, err)
		}
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		return cfg, cwd, nil
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, "", err
	}
	cfg, err := manifest.LoadPackageList(ctx, abs)
	if err != nil {
		return nil, "", newExitCodeError(shared.ExitConfigError, err)
	}
	return cfg, filepath.Dir(abs), nil
}

func (c *appContext) roots(baseDir string) (resolver.Roots, error) {
	base := baseDir
	if c.rootDir != "" {
		base = c.rootDir
	}
	roots, err := resolver.DefaultRoots(base)
	if err != nil {
		return resolver.Roots{}, err
	}
	if c.pkgDir != "" {
		roots.Packages = c.pkgDir
	}
	if c.resolvedDir != "" {
		roots.Resolved = c.resolvedDir
	}
	if c.buildDir != "" {
		roots.Build = c.buildDir
	}
	return roots.Abs()
}

// prepare loads the package list and turns the selected packages into
// descriptors.
func (c *appContext) prepare(ctx context.Context) ([]resolver.Descriptor, resolver.Roots, error) {
	cfg, baseDir, err := loadPackageList(ctx, c.configPath)
	if err != nil {
		return nil, resolver.Roots{}, err
	}
	roots, err := c.roots(baseDir)
	if err != nil {
		return nil, resolver.Roots{}, err
	}
	pkgs, err := manifest.Select(cfg, c.only)
	if err != nil {
		return nil, resolver.Roots{}, newExitCodeError(shared.ExitConfigError, err)
	}
	for i := range pkgs {
		if pkgs[i].SigningKey != "" && !filepath.IsAbs(pkgs[i].SigningKey) {
			pkgs[i].SigningKey = filepath.Join(baseDir, pkgs[i].SigningKey)
		}
	}
	descriptors, err := resolver.NewDescriptors(pkgs, roots)
	if err != nil {
		return nil, resolver.Roots{}, newExitCodeError(shared.ExitConfigError, err)
	}
	return descriptors, roots, nil
}

func (c *appContext) newEngine(cmd *cobra.Command, roots resolver.Roots) *resolver.Engine {
	var fetchOpts []fetch.Option
	if !c.noProgress {
		fetchOpts = append(fetchOpts, fetch.WithProgress(cmd.ErrOrStderr()))
	}
	return resolver.New(roots,
		resolver.WithDownloader(fetch.NewDownloader(fetchOpts...)),
		resolver.WithLogger(logger.Logger()),
		resolver.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	)
}

type exitCodeError struct {
	code int
	err  error
}

func newExitCodeError(code int, err error) *exitCodeError {
	return &exitCodeError{code: code, err: err}
}

func (e *exitCodeError) Error() string {
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}
