package taskrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
)

// Command describes one out-of-process invocation.
type Command struct {
	Dir    string
	Env    map[string]string
	Stdout io.Writer
	Stderr io.Writer
}

// shellCandidates lists interpreters in order of preference.
var shellCandidates = []string{"/bin/bash", "/usr/bin/bash", "/bin/sh"}

func getShell() string {
	for _, shell := range shellCandidates {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

// RunShell runs script through the shell. The script text is passed as is.
func RunShell(ctx context.Context, c Command, script string) error {
	return RunProgram(ctx, c, getShell(), "-c", script)
}

// RunProgram runs name with args, waiting for it to exit.
func RunProgram(ctx context.Context, c Command, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.Dir
	cmd.Env = mergeEnv(os.Environ(), c.Env)
	cmd.Stdout = c.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		if code := ExitCode(err); code > 0 {
			return fmt.Errorf("%s exited with code %d: %w", name, code, err)
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// ExitCode returns the exit status carried by err, or -1 when err does not
// come from a process that exited.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// mergeEnv appends extra to base in key order. Later entries win, so extra
// overrides inherited variables of the same name.
func mergeEnv(base []string, extra map[string]string) []string {
	env := make([]string, 0, len(base)+len(extra))
	env = append(env, base...)
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, extra[k]))
	}
	return env
}
