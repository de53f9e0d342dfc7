package lockfile

import (
	"errors"
	"sync"
)

// Kind identifies the locking facility backing a Lock.
type Kind int

const (
	// KindNative locks through the gofrs/flock library.
	KindNative Kind = iota
	// KindPosix locks through the flock(2) syscall.
	KindPosix
	// KindWindows locks through LockFileEx.
	KindWindows
	// KindNoOp performs no locking at all. It is selected only when no
	// real facility is usable; callers get no exclusion under it.
	KindNoOp
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindPosix:
		return "posix"
	case KindWindows:
		return "windows"
	case KindNoOp:
		return "noop"
	default:
		return "unknown"
	}
}

// errConflict signals that a non-blocking attempt found the marker held
// by another locker. The acquire loop translates it into ErrTimeout or
// ErrAlreadyLocked.
var errConflict = errors.New("lock held elsewhere")

// backend makes single non-blocking lock attempts against a marker
// path. TryLock returns errConflict when another holder has the marker.
type backend interface {
	Kind() Kind
	TryLock(markerPath string) (backendLock, error)
}

// backendLock is one held backend-level lock.
type backendLock interface {
	release() error
}

// probe reports whether a candidate facility is usable on this host
// and, if so, constructs its backend. Probing takes no locks and
// creates no files.
type probe func() (backend, bool)

// selectBackend runs the probe chain once per process: the flock
// library first, then the platform syscall facility, then the no-op
// fallback. The selection is never re-evaluated; mixing backends on
// the same path would void the exclusion guarantee.
var selectBackend = sync.OnceValue(func() backend {
	chain := append([]probe{probeNative}, platformProbes()...)
	for _, p := range chain {
		if b, ok := p(); ok {
			return b
		}
	}
	return noopBackend{}
})

// SelectedBackend reports which locking facility this process uses.
// The answer is computed on first use and fixed for the process
// lifetime.
func SelectedBackend() Kind { return selectBackend().Kind() }

// noopBackend is the terminal fallback: acquisition always succeeds
// and provides no exclusion.
type noopBackend struct{}

func (noopBackend) Kind() Kind                          { return KindNoOp }
func (noopBackend) TryLock(string) (backendLock, error) { return noopLock{}, nil }

type noopLock struct{}

func (noopLock) release() error { return nil }
