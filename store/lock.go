package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/siherrmann/kddindex/internal/kerr"
)

// Lock is the advisory .kdd-index/.lock file enforcing single-writer-per-root
// (§5): at most one ingest/merge process mutates a given artifact root at a
// time.
type Lock struct {
	fl *flock.Flock
}

// NewLock returns a Lock for the artifact root at dir (not yet acquired).
func NewLock(dir string) *Lock {
	return &Lock{fl: flock.New(filepath.Join(dir, ".lock"))}
}

// Acquire blocks, retrying, until the lock is held or ctx is done.
func (l *Lock) Acquire(ctx context.Context) error {
	ok, err := l.fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return kerr.New("acquire artifact root lock", err)
	}
	if !ok {
		return kerr.NewMessage("acquire artifact root lock", kerr.CodeIndexUnavailable, "lock held by another process")
	}
	return nil
}

// Release gives up the lock.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
