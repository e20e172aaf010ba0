package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another run holds the history lock.
var ErrLocked = errors.New("history is locked by another run")

// Lock is an advisory file lock guarding one history location for the
// duration of a run.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the lock file next to historyPath without blocking.
func AcquireLock(historyPath string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
		return nil, fmt.Errorf("locking history %s: %w", historyPath, err)
	}
	fl := flock.New(historyPath + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking history %s: %w", historyPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("locking history %s: %w", historyPath, ErrLocked)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. Safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.fl.Unlock()
}
