package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// DefaultLockWait bounds how long an invocation waits for another one to finish.
const DefaultLockWait = 30 * time.Second

const lockRetryDelay = 100 * time.Millisecond

// ErrLocked is returned when the lock is still held after the wait.
var ErrLocked = errors.New("another hawk process is running")

// FileLock is the advisory lock serialising hawk invocations that write to
// destinations, the registry or config documents.
type FileLock struct {
	mu   sync.Mutex
	fl   *flock.Flock
	wait time.Duration
}

// NewFileLock creates a lock on path. A non-positive wait uses DefaultLockWait.
func NewFileLock(path string, wait time.Duration) *FileLock {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &FileLock{fl: flock.New(path), wait: wait}
}

// Path returns the lock file path.
func (l *FileLock) Path() string { return l.fl.Path() }

// Lock waits up to the configured duration for the lock.
func (l *FileLock) Lock(ctx context.Context) error {
	l.mu.Lock()
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0755); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	ok, err := l.fl.TryLockContext(waitCtx, lockRetryDelay)
	if ok {
		return nil
	}
	l.mu.Unlock()
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s still held after %s", ErrLocked, l.fl.Path(), l.wait)
	}
	if err == nil {
		err = ErrLocked
	}
	return err
}

// Unlock releases a lock taken by Lock.
func (l *FileLock) Unlock() error {
	defer l.mu.Unlock()
	return l.fl.Unlock()
}

// withLock runs fn while holding the services lock.
func (s *Services) withLock(ctx context.Context, fn func() error) error {
	if err := s.Lock.Lock(ctx); err != nil {
		return err
	}
	defer s.Lock.Unlock()
	return fn()
}
