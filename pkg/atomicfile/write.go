package atomicfile

import (
	"time"

	"safewrite/pkg/lockfile"
)

// Do runs fn with an open atomic write session for path, committing on
// success and discarding the temporary file when fn errors or panics.
// fn's error is returned unchanged. Do provides no serialization
// against concurrent writers; use DoLocked or WriteContent for that.
func Do(path string, mode Mode, fn func(*File) error, opts ...Option) error {
	w, err := Open(path, mode, opts...)
	if err != nil {
		return err
	}
	defer w.Abort()
	if err := fn(w); err != nil {
		return err
	}
	return w.Commit()
}

// DoLocked is Do with a lock session covering the whole critical
// section, from temporary-file creation through rename. When the lock
// cannot be acquired the lock error is returned unchanged and no
// temporary file is ever created.
func DoLocked(path string, mode Mode, timeout time.Duration, fn func(*File) error, opts ...Option) error {
	lock, err := lockfile.Acquire(path, timeout)
	if err != nil {
		return err
	}
	defer lock.Release()
	return Do(path, mode, fn, opts...)
}

// WriteContent atomically replaces path's content in one call. Content
// is written byte for byte; string callers convert with []byte(s).
// Locking is on by default and covers the full write; WithoutLock,
// WithLockTimeout and WithTempSuffix adjust it. Lock and write errors
// propagate to the caller unchanged.
func WriteContent(path string, content []byte, opts ...Option) error {
	cfg := applyOptions(opts)
	write := func(w *File) error {
		_, err := w.Write(content)
		return err
	}
	if !cfg.useLock {
		return Do(path, ModeWrite, write, opts...)
	}
	return DoLocked(path, ModeWrite, cfg.timeout, write, opts...)
}
