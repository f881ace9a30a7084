package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/snip-links/snip/internal/config"
)

var instanceLock *flock.Flock

func lockPath() string {
	return filepath.Join(config.GetSnipDir(), "snip.lock")
}

// AcquireLock takes the single-server lock. It returns false when another
// snip server already holds it.
func AcquireLock() (bool, error) {
	if err := config.EnsureDirs(); err != nil {
		return false, err
	}
	l := flock.New(lockPath())
	locked, err := l.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to lock %s: %w", l.Path(), err)
	}
	if !locked {
		return false, nil
	}
	instanceLock = l
	return true, nil
}

// ReleaseLock releases the lock taken by AcquireLock.
func ReleaseLock() error {
	if instanceLock == nil {
		return nil
	}
	err := instanceLock.Unlock()
	instanceLock = nil
	return err
}
