package control

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrRunInProgress is returned when another run holds the state directory.
var ErrRunInProgress = errors.New("another deskpilot run is in progress")

const lockFile = "run.lock"

// RunLock is an exclusive, process-wide lock on a state directory. Only one
// run may drive the desktop at a time.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// AcquireRunLock takes the lock without blocking. It returns
// ErrRunInProgress if another process holds it.
func AcquireRunLock(stateDir string) (*RunLock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	path := filepath.Join(stateDir, lockFile)
	fl := flock.New(path)

	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock on %s: %w", path, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w (lock %s)", ErrRunInProgress, path)
	}
	return &RunLock{flock: fl, path: path}, nil
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}

// Release unlocks the state directory.
func (l *RunLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
