// Package resolver acquires, builds and installs third-party packages one at
// a time, skipping packages whose check files are already installed.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pirakansa/depot/internal/cli/archive"
	"github.com/pirakansa/depot/internal/cli/fetch"
	"github.com/pirakansa/depot/internal/cli/logger"
	"github.com/pirakansa/depot/internal/cli/manifest"
	"github.com/pirakansa/depot/internal/cli/shared"
	"github.com/pirakansa/depot/internal/cli/taskrun"
	"go.uber.org/zap"
)

// State is a point in a package's lifecycle.
type State string

const (
	StateStart         State = "start"
	StateSkipCheck     State = "skip-check"
	StateSkipped       State = "skipped"
	StateAcquiring     State = "acquiring"
	StateAcquired      State = "acquired"
	StateAcquireFailed State = "acquire-failed"
	StateBuilding      State = "building"
	StateDone          State = "done"
	StateBuildFailed   State = "build-failed"
)

// Downloader fetches remote artifacts for the engine.
type Downloader interface {
	Download(ctx context.Context, url, destPath string) error
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Engine resolves descriptors sequentially against one set of roots.
type Engine struct {
	roots      Roots
	downloader Downloader
	log        *zap.SugaredLogger
	stdout     io.Writer
	stderr     io.Writer
	lockPath   string
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithDownloader(d Downloader) Option {
	return func(e *Engine) {
		e.downloader = d
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithOutput routes the output of build commands and git.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithLockPath sets where resolved packages are recorded. An empty path
// disables the lock file.
func WithLockPath(path string) Option {
	return func(e *Engine) {
		e.lockPath = path
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(roots Roots, opts ...Option) *Engine {
	e := &Engine{
		roots:    roots,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		lockPath: filepath.Join(roots.Resolved, manifest.LockFileName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.downloader == nil {
		e.downloader = fetch.NewDownloader()
	}
	if e.log == nil {
		e.log = logger.Logger()
	}
	return e
}

func (e *Engine) Roots() Roots {
	return e.roots
}

// ResolveAll resolves descriptors in order. A failing package never stops
// the batch; only a cancelled ctx does.
func (e *Engine) ResolveAll(ctx context.Context, descriptors []Descriptor) *Report {
	report := &Report{RunID: uuid.NewString(), Started: e.now()}
	e.log.Infow("resolving packages",
		"run", report.RunID,
		"count", len(descriptors),
		"pkg_path", e.roots.Packages,
		"resolved_path", e.roots.Resolved,
		"build_path", e.roots.Build,
	)

	for _, d := range descriptors {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			e.log.Warnw("resolution aborted", "run", report.RunID, "error", err)
			break
		}
		report.Results = append(report.Results, e.resolve(ctx, report.RunID, d))
	}

	report.Finished = e.now()
	done, skipped, failed := report.Counts()
	e.log.Infow("resolution finished", "run", report.RunID, "done", done, "skipped", skipped, "failed", failed)
	return report
}

// ResolveOne runs the lifecycle of a single descriptor.
func (e *Engine) ResolveOne(ctx context.Context, d Descriptor) Result {
	return e.resolve(ctx, uuid.NewString(), d)
}

func (e *Engine) resolve(ctx context.Context, runID string, d Descriptor) (res Result) {
	log := e.log.With("package", d.Name)
	started := e.now()
	res = Result{Name: d.Name, Version: d.Version, State: StateStart}

	log.Infow("resolving", "version", d.Version, "source", d.Source())
	defer func() {
		res.Duration = e.now().Sub(started)
		if res.Err != nil {
			var stepErr *StepError
			if errors.As(res.Err, &stepErr) {
				res.Step = stepErr.Step
			}
			log.Errorw("finished resolving", "state", string(res.State), "step", string(res.Step), "duration", res.Duration, "error", res.Err)
			return
		}
		log.Infow("finished resolving", "state", string(res.State), "duration", res.Duration)
	}()

	res.State = StateSkipCheck
	if e.canSkip(d, log) {
		res.State = StateSkipped
		return res
	}

	res.State = StateAcquiring
	if err := e.acquire(ctx, d, log); err != nil {
		res.State = StateAcquireFailed
		res.Err = err
		return res
	}
	res.State = StateAcquired

	res.State = StateBuilding
	if err := e.build(ctx, d, log); err != nil {
		res.State = StateBuildFailed
		res.Err = err
		return res
	}
	res.State = StateDone

	if err := e.record(runID, d); err != nil {
		log.Warnw("could not update lock file", "path", e.lockPath, "error", err)
	}
	return res
}

// CanSkip reports whether every check file of d is already installed.
func (e *Engine) CanSkip(d Descriptor) bool {
	return e.canSkip(d, zap.NewNop().Sugar())
}

func (e *Engine) canSkip(d Descriptor, log *zap.SugaredLogger) bool {
	if len(d.CheckFiles) == 0 {
		return false
	}
	if info, err := os.Stat(d.DestDir); err != nil || !info.IsDir() {
		return false
	}
	for _, f := range d.CheckFiles {
		checkPath := filepath.Join(d.DestDir, filepath.FromSlash(f))
		if _, err := os.Stat(checkPath); err != nil {
			log.Debugw("check file missing", "path", checkPath)
			return false
		}
		log.Debugw("check file exists", "path", checkPath)
	}
	log.Infow("skip building: all check files exist")
	return true
}

func (e *Engine) acquire(ctx context.Context, d Descriptor, log *zap.SugaredLogger) error {
	if d.GitSourceURL != "" {
		return e.clone(ctx, d, log)
	}
	if err := e.ensureArchive(ctx, d, log); err != nil {
		return err
	}
	if err := e.verifyArchive(ctx, d, log); err != nil {
		return err
	}
	return e.extract(d, log)
}

func (e *Engine) clone(ctx context.Context, d Descriptor, log *zap.SugaredLogger) error {
	log = log.With("step", string(StepClone))
	log.Infow("cloning", "url", d.GitSourceURL, "dir", d.SourceDir)
	if err := os.MkdirAll(e.roots.Build, 0o755); err != nil {
		return newStepError(d.Name, StepClone, ErrCloneFailure, err)
	}
	err := taskrun.RunProgram(ctx, taskrun.Command{
		Dir:    e.roots.Build,
		Stdout: e.stdout,
		Stderr: e.stderr,
	}, "git", "clone", d.GitSourceURL, d.SourceDir)
	if err != nil {
		return newStepError(d.Name, StepClone, ErrCloneFailure, err)
	}
	log.Infow("git clone successful")
	return nil
}

// ensureArchive makes the archive available in the packages root. An
// archive already present is used as is and no download happens.
func (e *Engine) ensureArchive(ctx context.Context, d Descriptor, log *zap.SugaredLogger) error {
	if d.ArchivePath != "" {
		if _, err := os.Stat(d.ArchivePath); err == nil {
			log.Infow("using cached archive", "path", d.ArchivePath)
			return nil
		}
	}
	if d.HTTPDownloadURL == "" {
		log.Warnw("nothing to acquire: no download url configured", "archive", d.ArchivePath)
		return nil
	}
	if d.ArchivePath == "" {
		return newStepError(d.Name, StepDownload, ErrDownloadFailure,
			fmt.Errorf("cannot derive an archive file name from %s", d.HTTPDownloadURL))
	}

	log = log.With("step", string(StepDownload))
	log.Infow("downloading", "url", d.HTTPDownloadURL, "path", d.ArchivePath)
	if err := e.downloader.Download(ctx, d.HTTPDownloadURL, d.ArchivePath); err != nil {
		return newStepError(d.Name, StepDownload, ErrDownloadFailure, err)
	}
	return nil
}

func (e *Engine) verifyArchive(ctx context.Context, d Descriptor, log *zap.SugaredLogger) error {
	if d.ArchivePath == "" {
		return nil
	}
	if _, err := os.Stat(d.ArchivePath); err != nil {
		// extraction reports the missing archive
		return nil
	}
	log = log.With("step", string(StepVerify))
	if d.Digest != "" {
		if err := fetch.VerifyDigest(d.ArchivePath, d.Digest); err != nil {
			return newStepError(d.Name, StepVerify, ErrChecksumMismatch, err)
		}
		log.Debugw("archive digest verified", "digest", d.Digest)
	}
	if d.SignatureURL != "" {
		signature, err := e.downloader.Fetch(ctx, d.SignatureURL)
		if err != nil {
			return newStepError(d.Name, StepVerify, ErrSignatureFailure, err)
		}
		if err := fetch.VerifySignature(d.ArchivePath, signature, d.SigningKey); err != nil {
			return newStepError(d.Name, StepVerify, ErrSignatureFailure, err)
		}
		log.Infow("archive signature verified", "signature", d.SignatureURL)
	}
	return nil
}

func (e *Engine) extract(d Descriptor, log *zap.SugaredLogger) error {
	log = log.With("step", string(StepExtract))
	log.Infow("uncompressing", "archive", d.ArchivePath, "dir", d.SourceDir)
	err := archive.Extract(d.ArchivePath, d.SourceDir)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, archive.ErrNotFound):
		return newStepError(d.Name, StepExtract, ErrMissingSourceArchive, err)
	case errors.Is(err, archive.ErrUnsupportedFormat):
		return newStepError(d.Name, StepExtract, ErrUnsupportedArchiveFormat, err)
	default:
		return newStepError(d.Name, StepExtract, ErrExtractionFailure, err)
	}
}

func (e *Engine) build(ctx context.Context, d Descriptor, log *zap.SugaredLogger) error {
	if err := os.MkdirAll(d.DestDir, 0o755); err != nil {
		return newStepError(d.Name, StepBuild, ErrBuildCommandFailure, err)
	}
	log = log.With("step", string(StepBuild))
	log.Infow("building", "dir", d.SourceDir)
	log.Debugw("build command", "command", d.BuildCommand)

	err := taskrun.RunShell(ctx, taskrun.Command{
		Dir:    d.SourceDir,
		Env:    d.BuildEnv(e.roots.Resolved),
		Stdout: e.stdout,
		Stderr: e.stderr,
	}, d.BuildCommand)
	if err != nil {
		return newStepError(d.Name, StepBuild, ErrBuildCommandFailure, err)
	}
	log.Infow("build successful")
	return nil
}

func (e *Engine) record(runID string, d Descriptor) error {
	if e.lockPath == "" {
		return nil
	}
	lock, err := manifest.LoadLock(e.lockPath)
	if err != nil {
		return err
	}
	entry := manifest.LockEntry{
		Version:    d.Version,
		Source:     d.Source(),
		CheckFiles: d.CheckFiles,
		PURL:       d.PURL(),
		RunID:      runID,
		ResolvedAt: e.now().UTC().Format(time.RFC3339),
	}
	if d.GitSourceURL == "" && d.ArchivePath != "" {
		if sum, err := shared.FileDigestHex(d.ArchivePath, shared.DigestBLAKE3); err == nil {
			entry.ArchiveDigest = shared.DigestBLAKE3 + ":" + sum
		}
	}
	lock.Packages[d.Name] = entry
	return manifest.SaveLock(e.lockPath, lock)
}
