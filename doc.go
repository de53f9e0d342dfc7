// Package safewrite lets multiple threads or processes update a shared
// file on one host without readers ever observing partial writes.
//
// Two coupled primitives make that possible:
//
//   - pkg/lockfile: an exclusive, timeout-bounded advisory file lock
//     over whatever native locking facility the host offers, degrading
//     gracefully (library flock, then the platform syscall, then a
//     documented no-op) when a facility is unavailable.
//   - pkg/atomicfile: an atomic write built on write-to-temporary-
//     then-rename, which preserves symbolic links and copies existing
//     content forward for append and update modes.
//
// # Quick start
//
//	// One-shot, lock-covered content replacement.
//	err := atomicfile.WriteContent("state.json", data)
//
//	// Scoped write with a bounded lock wait.
//	err = atomicfile.DoLocked("state.json", atomicfile.ModeAppend,
//		2*time.Second, func(w *atomicfile.File) error {
//			_, err := w.WriteString("one more line\n")
//			return err
//		})
//
// The cmd/safewrite command wraps the same operations for shell use:
// it reads stdin and writes it atomically to its argument.
//
// This is not a distributed lock manager: locks coordinate processes
// on a single host only, and fairness among waiters is whatever the
// underlying OS primitive provides.
package safewrite
