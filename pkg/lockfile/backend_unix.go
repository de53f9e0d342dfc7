//go:build unix

package lockfile

import (
	"os"

	"golang.org/x/sys/unix"
)

func platformProbes() []probe {
	return []probe{func() (backend, bool) { return posixBackend{}, true }}
}

// posixBackend locks the marker file with flock(2). Locks are advisory
// and scoped to the open file description, so two handles in the same
// process conflict just like two processes do.
type posixBackend struct{}

func (posixBackend) Kind() Kind { return KindPosix }

func (posixBackend) TryLock(markerPath string) (backendLock, error) {
	f, err := os.OpenFile(markerPath, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if err == unix.EWOULDBLOCK || err == unix.EAGAIN || err == unix.EACCES {
			return nil, errConflict
		}
		return nil, err
	}
	return &posixLock{f: f, marker: markerPath}, nil
}

type posixLock struct {
	f      *os.File
	marker string
}

func (l *posixLock) release() error {
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	err := l.f.Close()
	// The marker exists only to carry the lock; removal is best effort.
	_ = os.Remove(l.marker)
	return err
}
