//go:build !unix && !windows

package lockfile

// No syscall-level locking facility on this platform; selection falls
// through to the no-op backend.
func platformProbes() []probe { return nil }
