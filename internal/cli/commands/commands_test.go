package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pirakansa/depot/internal/cli/manifest"
	"github.com/pirakansa/depot/internal/cli/shared"
)

const partialList = `version: 1
packages:
  - name: ok
    pkg_file: ok.tar.gz
    build_command: "true"
    check_files: [marker]
  - name: bad
    pkg_file: bad.tar.gz
    build_command: "true"
`

func writePackageList(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, manifest.DefaultConfigName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write depot.yaml failed: %v", err)
	}
	return path
}

func runRoot(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func installMarker(t *testing.T, base string) {
	t.Helper()
	dir := filepath.Join(base, "depends", "resolved", "ok")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "marker"), nil, 0o644); err != nil {
		t.Fatalf("write marker failed: %v", err)
	}
}

func TestMapExitCode(t *testing.T) {
	if got := mapExitCode(newExitCodeError(shared.ExitConfigError, errors.New("x"))); got != shared.ExitConfigError {
		t.Fatalf("expected %d got %d", shared.ExitConfigError, got)
	}
	if got := mapExitCode(errors.New("other")); got != shared.ExitFailure {
		t.Fatalf("expected %d got %d", shared.ExitFailure, got)
	}
}

func TestResolveExitsZeroOnPartialFailure(t *testing.T) {
	temp := t.TempDir()
	configPath := writePackageList(t, temp, partialList)
	installMarker(t, temp)

	out, err := runRoot(t, context.Background(), "resolve", "--config", configPath, "--no-progress")
	if err != nil {
		t.Fatalf("expected resolve to succeed, err=%v", err)
	}
	if !strings.Contains(out, "failed: bad") {
		t.Fatalf("expected failure report for bad, got:\n%s", out)
	}
	if !strings.Contains(out, "0 built, 1 skipped, 1 failed") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}

func TestRootCommandResolvesByDefault(t *testing.T) {
	temp := t.TempDir()
	configPath := writePackageList(t, temp, partialList)
	installMarker(t, temp)

	out, err := runRoot(t, context.Background(), "--config", configPath, "--only", "ok")
	if err != nil {
		t.Fatalf("expected resolve to succeed, err=%v", err)
	}
	if !strings.Contains(out, "0 built, 1 skipped, 0 failed") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}

func TestResolveRejectsUnknownOnlyName(t *testing.T) {
	configPath := writePackageList(t, t.TempDir(), partialList)

	_, err := runRoot(t, context.Background(), "--config", configPath, "--only", "missing")
	var exitErr *exitCodeError
	if !errors.As(err, &exitErr) || exitErr.code != shared.ExitConfigError {
		t.Fatalf("expected ExitConfigError, err=%v", err)
	}
}

func TestResolveReturnsConfigErrorWhenListMissing(t *testing.T) {
	_, err := runRoot(t, context.Background(), "resolve", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	var exitErr *exitCodeError
	if !errors.As(err, &exitErr) || exitErr.code != shared.ExitConfigError {
		t.Fatalf("expected ExitConfigError, err=%v", err)
	}
}

func TestResolveReturnsAbortedWhenCancelled(t *testing.T) {
	configPath := writePackageList(t, t.TempDir(), partialList)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runRoot(t, ctx, "resolve", "--config", configPath)
	var exitErr *exitCodeError
	if !errors.As(err, &exitErr) || exitErr.code != shared.ExitAborted {
		t.Fatalf("expected ExitAborted, err=%v", err)
	}
}

func TestPlanCommandReportsActions(t *testing.T) {
	temp := t.TempDir()
	configPath := writePackageList(t, temp, `version: 1
packages:
  - name: remote
    http_download_url: https://example.com/remote-1.0.tar.gz
    build_command: make install
  - name: repo
    git_source_url: https://example.com/repo.git
    build_command: make install
`)

	out, err := runRoot(t, context.Background(), "plan", "--config", configPath)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if !containsAll(out, []string{"remote\tdownload+extract", "repo\tclone"}) {
		t.Fatalf("unexpected plan output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(temp, "depends")); !os.IsNotExist(err) {
		t.Fatalf("plan must not create directories, err=%v", err)
	}
}

func TestListCommandShowsStatus(t *testing.T) {
	temp := t.TempDir()
	configPath := writePackageList(t, temp, partialList)
	installMarker(t, temp)

	out, err := runRoot(t, context.Background(), "list", "--config", configPath)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !containsAll(out, []string{"ok\t-\tinstalled", "bad\t-\tpending"}) {
		t.Fatalf("unexpected list output:\n%s", out)
	}
}

func TestListReadsLockFromResolvedDirOverride(t *testing.T) {
	temp := t.TempDir()
	configPath := writePackageList(t, temp, partialList)
	resolvedDir := filepath.Join(t.TempDir(), "installed")
	if err := os.MkdirAll(resolvedDir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	lock := &manifest.LockFile{Packages: map[string]manifest.LockEntry{
		"ok": {ResolvedAt: "2026-10-01T00:00:00Z"},
	}}
	if err := manifest.SaveLock(filepath.Join(resolvedDir, manifest.LockFileName), lock); err != nil {
		t.Fatalf("SaveLock failed: %v", err)
	}

	out, err := runRoot(t, context.Background(), "list", "--config", configPath, "--resolved-dir", resolvedDir)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "ok\t-\tpending\t2026-10-01T00:00:00Z") {
		t.Fatalf("expected lock entry from the resolved dir override, got:\n%s", out)
	}
}

func TestValidateCommand(t *testing.T) {
	temp := t.TempDir()
	configPath := writePackageList(t, temp, partialList)

	out, err := runRoot(t, context.Background(), "validate", "--config", configPath)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "ok: 2 packages") {
		t.Fatalf("unexpected validate output: %s", out)
	}

	invalid := writePackageList(t, t.TempDir(), "version: 1\npackages:\n  - name: x\n")
	_, err = runRoot(t, context.Background(), "validate", "--config", invalid)
	var exitErr *exitCodeError
	if !errors.As(err, &exitErr) || exitErr.code != shared.ExitConfigError {
		t.Fatalf("expected ExitConfigError, err=%v", err)
	}
}

func TestInitCommandCreatesFileAndFailsOnSecondRun(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), manifest.DefaultConfigName)

	if _, err := runRoot(t, context.Background(), "init", "--config", configPath); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	cfg, err := manifest.LoadPackageList(context.Background(), configPath)
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if len(cfg.Packages) != 2 || cfg.Packages[0].Name != "srt" {
		t.Fatalf("unexpected template packages: %+v", cfg.Packages)
	}

	if _, err := runRoot(t, context.Background(), "init", "--config", configPath); err == nil {
		t.Fatalf("expected second init to fail when the file already exists")
	}
}

func TestInitForceBacksUpExistingFile(t *testing.T) {
	temp := t.TempDir()
	configPath := writePackageList(t, temp, partialList)

	out, err := runRoot(t, context.Background(), "init", "--force", "--config", configPath)
	if err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	if !strings.Contains(out, "backup: ") {
		t.Fatalf("expected backup notice, got:\n%s", out)
	}
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one backup, got %v err=%v", matches, err)
	}
	b, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(b) != partialList {
		t.Fatalf("backup does not hold the previous list:\n%s", string(b))
	}
	b, err = os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read depot.yaml: %v", err)
	}
	if !strings.Contains(string(b), "name: srt") {
		t.Fatalf("expected template content, got:\n%s", string(b))
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, context.Background(), "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "depot test") {
		t.Fatalf("unexpected version output: %s", out)
	}
}

func TestLoadPackageListUsesCWDForRemoteConfig(t *testing.T) {
	temp := t.TempDir()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer func() { _ = os.Chdir(oldwd) }()
	if err := os.Chdir(temp); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(partialList))
	}))
	defer server.Close()

	cfg, baseDir, err := loadPackageList(context.Background(), server.URL+"/depot.yaml")
	if err != nil {
		t.Fatalf("loadPackageList returned error: %v", err)
	}
	if len(cfg.Packages) != 2 {
		t.Fatalf("expected packages from remote list, got %d", len(cfg.Packages))
	}
	wantDir, _ := filepath.EvalSymlinks(temp)
	gotDir, _ := filepath.EvalSymlinks(baseDir)
	if gotDir != wantDir {
		t.Fatalf("expected baseDir=%s, got=%s", wantDir, gotDir)
	}
}

func TestResolveCancelledBeforeRemoteListLoads(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runRoot(t, ctx, "validate", "--config", server.URL+"/depot.yaml")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, err=%v", err)
	}
}

func TestRootsHonourOverrides(t *testing.T) {
	base := t.TempDir()
	pkgDir := filepath.Join(t.TempDir(), "cache")
	ctx := &appContext{rootDir: base, pkgDir: pkgDir}

	roots, err := ctx.roots("/ignored")
	if err != nil {
		t.Fatalf("roots returned error: %v", err)
	}
	if roots.Packages != pkgDir {
		t.Fatalf("expected pkg dir override, got %s", roots.Packages)
	}
	if roots.Resolved != filepath.Join(base, "depends", "resolved") || roots.Build != filepath.Join(base, "depends", "build") {
		t.Fatalf("unexpected roots: %+v", roots)
	}
}

func TestPrepareResolvesSigningKeyAgainstListDir(t *testing.T) {
	temp := t.TempDir()
	configPath := writePackageList(t, temp, `version: 1
packages:
  - name: signed
    http_download_url: https://example.com/signed-1.0.tar.gz
    signature_url: https://example.com/signed-1.0.tar.gz.asc
    signing_key: keys/release.asc
    build_command: make install
`)

	ctx := &appContext{configPath: configPath}
	descriptors, _, err := ctx.prepare(context.Background())
	if err != nil {
		t.Fatalf("prepare returned error: %v", err)
	}
	if descriptors[0].SigningKey != filepath.Join(temp, "keys", "release.asc") {
		t.Fatalf("unexpected signing key path: %s", descriptors[0].SigningKey)
	}
}

func containsAll(v string, items []string) bool {
	for _, item := range items {
		if !strings.Contains(v, item) {
			return false
		}
	}
	return true
}
