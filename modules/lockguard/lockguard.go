package lockguard

import (
	"errors"
	"os"
	"path"

	"github.com/nightlyone/lockfile"

	"github.com/rpi-ops/sd-backup/misc"
)

// Guard holds the exclusive run lock for the process lifetime.
type Guard struct {
	lock lockfile.Lockfile
}

// DefaultPath returns the lock file location used when the config does
// not override it.
func DefaultPath() string {
	return path.Join(os.TempDir(), "sd-backup.lck")
}

// Acquire makes a single non-blocking attempt to take the run lock.
// A lock held by a live process maps to misc.ErrLockHeld, which callers
// treat as a clean no-op exit, not a failure.
func Acquire(lockPath string) (*Guard, error) {
	lock, err := lockfile.New(lockPath)
	if err != nil {
		return nil, err
	}

	if err = lock.TryLock(); err != nil {
		if errors.Is(err, lockfile.ErrBusy) {
			return nil, misc.ErrLockHeld
		}
		return nil, err
	}

	return &Guard{lock: lock}, nil
}

// Release frees the advisory hold. Safe to defer on every exit path.
func (g *Guard) Release() {
	_ = g.lock.Unlock()
}
