//go:build !nonativelock

package lockfile

import "github.com/gofrs/flock"

// probeNative constructs the flock-library backend. The library is
// portable, so whenever it is compiled in it wins the selection.
// Builds tagged nonativelock exclude it and fall through to the
// platform syscall backends.
func probeNative() (backend, bool) { return nativeBackend{}, true }

type nativeBackend struct{}

func (nativeBackend) Kind() Kind { return KindNative }

func (nativeBackend) TryLock(markerPath string) (backendLock, error) {
	fl := flock.New(markerPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, errConflict
	}
	return &nativeLock{fl: fl}, nil
}

type nativeLock struct{ fl *flock.Flock }

// release unlocks but leaves the marker file in place; the flock
// library owns that file's lifecycle.
func (l *nativeLock) release() error { return l.fl.Unlock() }
