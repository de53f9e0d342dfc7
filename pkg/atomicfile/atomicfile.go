// Package atomicfile writes files atomically. Content goes to a
// uniquely named temporary file in the target's directory and is
// renamed onto the target only once the write completes, so readers
// never observe partial content and a failed write leaves the target
// untouched.
//
// Symbolic-link targets are resolved one level before writing. The
// temporary file is created next to the real file, keeping the rename
// on a single filesystem, and the link itself survives the write.
package atomicfile

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
)

// Mode selects how existing target content is treated.
type Mode int

const (
	// ModeWrite replaces the target's content wholesale.
	ModeWrite Mode = iota
	// ModeAppend preserves existing content; writes land after it.
	ModeAppend
	// ModeUpdate preserves existing content; writes land over it from
	// the start of the file.
	ModeUpdate
)

// tempAttempts bounds retries when a generated temporary name collides
// with one left by a concurrent writer using the same convention.
const tempAttempts = 10

// File is one in-progress atomic write. Writes go to the temporary
// file; Commit publishes them, Abort discards them. Exactly one of the
// two finishes the session, and Abort is safe to run deferred after
// Commit.
type File struct {
	target string // path as given by the caller, absolute
	real   string // target after one level of symlink resolution
	tmp    string
	perm   os.FileMode
	f      *os.File
	closed bool
	done   bool
}

// Open begins an atomic write of path. The temporary file is created
// in the real target's directory; for ModeAppend and ModeUpdate an
// existing target's content is copied forward before Open returns, so
// subsequent writes land after or over it exactly as a direct open of
// the target would place them.
func Open(path string, mode Mode, opts ...Option) (*File, error) {
	cfg := applyOptions(opts)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	real, err := resolveTarget(abs)
	if err != nil {
		return nil, err
	}

	perm := cfg.perm
	info, statErr := os.Stat(real)
	exists := statErr == nil
	if perm == 0 {
		perm = 0o644
		if exists {
			perm = info.Mode().Perm()
		}
	}

	f, tmp, err := createTemp(real, cfg.suffix)
	if err != nil {
		return nil, err
	}
	w := &File{target: abs, real: real, tmp: tmp, perm: perm, f: f}

	if (mode == ModeAppend || mode == ModeUpdate) && exists {
		if err := w.copyForward(mode); err != nil {
			_ = w.Abort()
			return nil, err
		}
	}
	return w, nil
}

// resolveTarget follows a symbolic link one level so the temporary
// file lands next to the real file and the link is never replaced.
func resolveTarget(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return path, nil
	}
	dest, err := os.Readlink(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve symlink %s: %w", path, err)
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(path), dest)
	}
	return dest, nil
}

// createTemp creates a uniquely named temporary file next to real: the
// target's base name, the configured suffix, and a pid/random
// component. A name collision is retried a bounded number of times.
func createTemp(real, suffix string) (*os.File, string, error) {
	dir := filepath.Dir(real)
	base := filepath.Base(real)
	for i := 0; i < tempAttempts; i++ {
		// #nosec G404 -- rand is okay for temp file names
		tmp := filepath.Join(dir, fmt.Sprintf("%s%s%d_%06d", base, suffix,
			os.Getpid(), rand.Intn(1000000)))
		f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return f, tmp, nil
		}
		if !os.IsExist(err) {
			return nil, "", fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
		}
	}
	return nil, "", fmt.Errorf("failed to create temporary file in %s: %d name collisions", dir, tempAttempts)
}

// copyForward seeds the temporary file with the target's current
// content before the caller writes anything.
func (w *File) copyForward(mode Mode) error {
	src, err := os.Open(w.real)
	if err != nil {
		return fmt.Errorf("failed to open %s for copy: %w", w.real, err)
	}
	defer src.Close()
	// io.Copy between two *os.File uses the platform's file-to-file
	// fast path where one exists.
	if _, err := io.Copy(w.f, src); err != nil {
		return fmt.Errorf("failed to copy existing content of %s: %w", w.real, err)
	}
	if mode == ModeUpdate {
		if _, err := w.f.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}
	return nil
}

// Write writes to the temporary file.
func (w *File) Write(p []byte) (int, error) { return w.f.Write(p) }

// WriteString writes s to the temporary file.
func (w *File) WriteString(s string) (int, error) { return w.f.WriteString(s) }

// ReadFrom copies r into the temporary file.
func (w *File) ReadFrom(r io.Reader) (int64, error) { return w.f.ReadFrom(r) }

// Name returns the target path the write will publish to.
func (w *File) Name() string { return w.target }

// Commit flushes and closes the temporary file, then renames it onto
// the real target as a single atomic step and applies the final
// permission bits. After Commit the session is finished and cannot be
// reused. On any failure before the rename the temporary file is
// removed and the target stays as it was.
func (w *File) Commit() error {
	if w.done {
		return fmt.Errorf("atomic write to %s already finished", w.target)
	}
	if err := w.f.Sync(); err != nil {
		_ = w.Abort()
		return fmt.Errorf("failed to sync temporary file %s: %w", w.tmp, err)
	}
	if err := w.f.Close(); err != nil {
		w.closed = true
		_ = w.Abort()
		return fmt.Errorf("failed to close temporary file %s: %w", w.tmp, err)
	}
	w.closed = true
	if err := replaceFile(w.tmp, w.real); err != nil {
		_ = w.Abort()
		return err
	}
	w.done = true
	if err := os.Chmod(w.real, w.perm); err != nil {
		return fmt.Errorf("file written to %s, but failed to set permissions to %o: %w", w.real, w.perm, err)
	}
	return nil
}

// Abort closes and removes the temporary file, leaving the target as
// it was. It is a no-op after Commit or a previous Abort, so it can
// run deferred to cover every exit path.
func (w *File) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	if !w.closed {
		_ = w.f.Close()
		w.closed = true
	}
	if err := os.Remove(w.tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temporary file %s: %w", w.tmp, err)
	}
	return nil
}
