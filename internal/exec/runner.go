package exec

import (
	"context"
	"os/exec"
	"runtime"
)

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct {
	goos string
}

// NewRunner creates a new ExecRunner for the current platform.
func NewRunner() *ExecRunner {
	return &ExecRunner{goos: runtime.GOOS}
}

// Run executes a command and returns combined stdout/stderr output.
func (r *ExecRunner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	return cmd.CombinedOutput()
}

// RunShell executes a command line through the platform shell.
func (r *ExecRunner) RunShell(ctx context.Context, workDir string, command string) ([]byte, error) {
	name, args := ShellCommand(r.goos, command)
	return r.Run(ctx, workDir, name, args...)
}

// LookPath resolves name against PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// ShellCommand returns the shell invocation for command on goos.
func ShellCommand(goos, command string) (string, []string) {
	if goos == "windows" {
		return "cmd", []string{"/c", command}
	}
	return "sh", []string{"-c", command}
}

// Verify ExecRunner implements CommandRunner at compile time.
var _ CommandRunner = (*ExecRunner)(nil)
