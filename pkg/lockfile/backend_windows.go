//go:build windows

package lockfile

import (
	"os"

	"golang.org/x/sys/windows"
)

func platformProbes() []probe {
	return []probe{func() (backend, bool) { return windowsBackend{}, true }}
}

// windowsBackend locks the first byte of the marker file with
// LockFileEx. Unlike flock, these locks are mandatory for conflicting
// LockFileEx calls on the same region.
type windowsBackend struct{}

func (windowsBackend) Kind() Kind { return KindWindows }

func (windowsBackend) TryLock(markerPath string) (backendLock, error) {
	f, err := os.OpenFile(markerPath, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	err = windows.LockFileEx(windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, 1, 0, new(windows.Overlapped))
	if err != nil {
		_ = f.Close()
		if err == windows.ERROR_LOCK_VIOLATION {
			return nil, errConflict
		}
		return nil, err
	}
	return &windowsLock{f: f, marker: markerPath}, nil
}

type windowsLock struct {
	f      *os.File
	marker string
}

func (l *windowsLock) release() error {
	_ = windows.UnlockFileEx(windows.Handle(l.f.Fd()), 0, 1, 0, new(windows.Overlapped))
	err := l.f.Close()
	// The marker exists only to carry the lock; removal is best effort.
	_ = os.Remove(l.marker)
	return err
}
