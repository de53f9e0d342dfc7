//go:build nonativelock

package lockfile

// probeNative reports the flock library as unavailable, advancing
// selection to the platform syscall backends.
func probeNative() (backend, bool) { return nil, false }
