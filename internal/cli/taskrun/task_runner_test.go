package taskrun

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunShellUsesDirAndEnv(t *testing.T) {
	temp := t.TempDir()
	var stdout bytes.Buffer

	err := RunShell(context.Background(), Command{
		Dir:    temp,
		Env:    map[string]string{"PKG_NAME": "srt", "DST_PATH": "/opt/srt"},
		Stdout: &stdout,
	}, `echo "$PKG_NAME $DST_PATH" > result.txt && pwd`)
	if err != nil {
		t.Fatalf("RunShell failed: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(temp, "result.txt"))
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if string(b) != "srt /opt/srt\n" {
		t.Fatalf("unexpected env output: %q", string(b))
	}
	wd, err := filepath.EvalSymlinks(strings.TrimSpace(stdout.String()))
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	want, err := filepath.EvalSymlinks(temp)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	if wd != want {
		t.Fatalf("working dir = %s, want %s", wd, want)
	}
}

func TestRunShellInheritsEnvironment(t *testing.T) {
	t.Setenv("DEPOT_INHERITED", "yes")
	var stdout bytes.Buffer
	err := RunShell(context.Background(), Command{Dir: t.TempDir(), Stdout: &stdout}, `printf %s "$DEPOT_INHERITED"`)
	if err != nil {
		t.Fatalf("RunShell failed: %v", err)
	}
	if stdout.String() != "yes" {
		t.Fatalf("inherited env missing: %q", stdout.String())
	}
}

func TestRunShellOverridesInheritedValue(t *testing.T) {
	t.Setenv("PKG_NAME", "outer")
	var stdout bytes.Buffer
	err := RunShell(context.Background(), Command{
		Dir:    t.TempDir(),
		Env:    map[string]string{"PKG_NAME": "inner"},
		Stdout: &stdout,
	}, `printf %s "$PKG_NAME"`)
	if err != nil {
		t.Fatalf("RunShell failed: %v", err)
	}
	if stdout.String() != "inner" {
		t.Fatalf("PKG_NAME = %q, want inner", stdout.String())
	}
}

func TestRunShellReportsExitCode(t *testing.T) {
	var stderr bytes.Buffer
	err := RunShell(context.Background(), Command{Dir: t.TempDir(), Stderr: &stderr}, "echo broken >&2; exit 3")
	if err == nil {
		t.Fatalf("expected failure")
	}
	if code := ExitCode(err); code != 3 {
		t.Fatalf("ExitCode = %d, want 3", code)
	}
	if !strings.Contains(stderr.String(), "broken") {
		t.Fatalf("stderr not forwarded: %q", stderr.String())
	}
}

func TestRunProgramMissingBinary(t *testing.T) {
	err := RunProgram(context.Background(), Command{Dir: t.TempDir()}, "depot-no-such-binary")
	if err == nil {
		t.Fatalf("expected failure")
	}
	if code := ExitCode(err); code != -1 {
		t.Fatalf("ExitCode = %d, want -1", code)
	}
}

func TestRunShellMissingDir(t *testing.T) {
	err := RunShell(context.Background(), Command{Dir: filepath.Join(t.TempDir(), "missing")}, "true")
	if err == nil {
		t.Fatalf("expected failure for missing working directory")
	}
}
