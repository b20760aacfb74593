// Package exec provides an interface for running external commands.
package exec

import (
	"context"
)

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking command execution in tests.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr output.
	// The working directory is set to workDir if non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// RunShell executes a command line through the platform shell
	// ("sh -c", or "cmd /c" on Windows).
	RunShell(ctx context.Context, workDir string, command string) (output []byte, err error)

	// LookPath resolves an executable name against PATH.
	LookPath(name string) (string, error)
}
