package pagesearch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFilename is the name of the lock file created in the output directory
// while an export is running.
const LockFilename = ".pagesearch.lock"

// OutputLock is an exclusive, process-wide lock on an output directory.
type OutputLock struct {
	flock *flock.Flock
	path  string
}

// NewOutputLock creates a lock for the given output directory.
func NewOutputLock(dir string) *OutputLock {
	path := filepath.Join(dir, LockFilename)
	return &OutputLock{
		flock: flock.New(path),
		path:  path,
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns false if another export holds it.
func (l *OutputLock) TryLock() (bool, error) {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	return acquired, nil
}

// Release unlocks and removes the lock file. It is a no-op if the lock is
// not held.
func (l *OutputLock) Release() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		_ = l.flock.Unlock()
		return fmt.Errorf("failed to remove lock file %s: %w", l.path, err)
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *OutputLock) Path() string {
	return l.path
}
