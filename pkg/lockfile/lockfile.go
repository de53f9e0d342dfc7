// Package lockfile provides exclusive, timeout-bounded advisory file
// locks over whichever native locking facility the host offers.
//
// The facility is chosen once per process, in order of preference: the
// gofrs/flock library, the flock(2) syscall, LockFileEx on Windows,
// and finally a no-op backend that always succeeds but provides no
// exclusion. The lock is carried by a sibling "<path>.lock" marker
// file; the target file itself is never opened by this package.
package lockfile

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrTimeout is returned when the acquisition deadline elapses
	// while waiting for a lock.
	ErrTimeout = errors.New("timeout waiting for file lock")
	// ErrAlreadyLocked is returned when a single immediate attempt
	// finds the path locked and no wait was requested.
	ErrAlreadyLocked = errors.New("file is already locked")
	// ErrFailed is returned for any acquisition failure that is not a
	// conflict: permissions, I/O, backend malfunction.
	ErrFailed = errors.New("failed to acquire file lock")
)

// NoTimeout makes Acquire wait indefinitely.
const NoTimeout time.Duration = -1

// pollInterval is the sleep between non-blocking acquisition attempts.
const pollInterval = 10 * time.Millisecond

// markerSuffix names the sibling file that carries the lock.
const markerSuffix = ".lock"

// Lock is one held exclusive lock on a path. Each acquisition produces
// a fresh handle; a released handle cannot be reused or re-released to
// the backend.
type Lock struct {
	path string
	kind Kind

	mu       sync.Mutex
	bl       backendLock
	released bool
}

// Acquire obtains an exclusive advisory lock for path.
//
// NoTimeout (or any negative timeout) waits indefinitely. A zero
// timeout makes a single immediate attempt, failing with
// ErrAlreadyLocked if the path is held. A positive timeout retries
// every pollInterval, failing with ErrTimeout once the elapsed wait
// exceeds it. Any other backend failure is reported as ErrFailed with
// the underlying diagnostic attached.
func Acquire(path string, timeout time.Duration) (*Lock, error) {
	return acquire(selectBackend(), path, timeout)
}

func acquire(b backend, path string, timeout time.Duration) (*Lock, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrFailed)
	}

	marker := path + markerSuffix
	start := time.Now()

	for {
		bl, err := b.TryLock(marker)
		if err == nil {
			return &Lock{path: path, kind: b.Kind(), bl: bl}, nil
		}
		if !errors.Is(err, errConflict) {
			return nil, fmt.Errorf("%w: %s: %v", ErrFailed, path, err)
		}
		if timeout == 0 {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyLocked, path)
		}
		if elapsed := time.Since(start); timeout > 0 && elapsed >= timeout {
			return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, path,
				elapsed.Round(time.Millisecond))
		}
		time.Sleep(pollInterval)
	}
}

// Path returns the locked target path.
func (l *Lock) Path() string { return l.path }

// Kind reports the backend that granted this lock.
func (l *Lock) Kind() Kind { return l.kind }

// Held reports whether the lock is still held.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.released
}

// Release drops the lock. Releasing an already-released handle is a
// no-op returning nil, so Release can run deferred and explicitly on
// the same handle.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil
	}
	l.released = true
	return l.bl.release()
}

// WithLock runs fn while holding an exclusive lock on path. The lock
// is released on every exit path, including a panic inside fn.
func WithLock(path string, timeout time.Duration, fn func() error) error {
	l, err := Acquire(path, timeout)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn()
}
