package utils

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

const lockRetryDelay = 50 * time.Millisecond

var ErrLockNotAcquired = errors.New("failed to acquire file lock")

// FileLock serializes access to a shared file across goroutines and processes.
// A flock.Flock is reentrant for its own holder, so goroutines sharing one also
// need the mutex.
type FileLock struct {
	mu    sync.Mutex
	flock *flock.Flock
}

func NewFileLock(path string) *FileLock {
	return &FileLock{flock: flock.New(path)}
}

func (fl *FileLock) Path() string {
	return fl.flock.Path()
}

// With runs fn while holding the lock.
func (fl *FileLock) With(ctx context.Context, fn func() error) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fl.flock.Path()), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create lock directory for %s", fl.flock.Path())
	}
	locked, err := fl.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return errors.Wrapf(err, "lock %s", fl.flock.Path())
	}
	if !locked {
		return errors.Wrapf(ErrLockNotAcquired, "lock %s", fl.flock.Path())
	}
	defer func() {
		_ = fl.flock.Unlock()
	}()
	return fn()
}
