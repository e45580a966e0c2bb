package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrHeld means another rollback run currently holds the deployment
// directory.
var ErrHeld = errors.New("deployment directory is locked by another run")

const lockFileName = ".rewind.lock"

// DirLock guards a deployment directory for the span of one rollback
// run. Advisory flock on <dir>/.rewind.lock, so CLI and serve-mode runs
// on the same host contend with each other while plain readers are
// unaffected.
type DirLock struct {
	dir string
}

func New(dir string) *DirLock {
	return &DirLock{dir: dir}
}

// Acquire takes the exclusive lock, non-blocking. The returned release
// must be called exactly once. The lock file itself stays in place;
// unlinking it on release would race a concurrent acquirer.
func (l *DirLock) Acquire() (release func() error, err error) {
	path := filepath.Join(l.dir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}
	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		if errors.Is(err, ErrHeld) {
			return nil, fmt.Errorf("%s: %w", path, ErrHeld)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	return func() error {
		unlockErr := funlock(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}
