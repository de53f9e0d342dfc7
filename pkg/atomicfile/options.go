package atomicfile

import (
	"os"
	"time"

	"safewrite/pkg/lockfile"
)

// DefaultTempSuffix separates a temporary file's name from its
// target's base name.
const DefaultTempSuffix = "~~"

type config struct {
	suffix  string
	perm    os.FileMode
	useLock bool
	timeout time.Duration
}

func applyOptions(opts []Option) config {
	cfg := config{
		suffix:  DefaultTempSuffix,
		useLock: true,
		timeout: lockfile.NoTimeout,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Option configures an atomic write.
type Option func(*config)

// WithTempSuffix overrides the suffix inserted between the target's
// base name and the temporary file's uniqueness component.
func WithTempSuffix(s string) Option { return func(c *config) { c.suffix = s } }

// WithPerm sets the target's final permission bits. The default
// preserves an existing target's mode, or 0644 for a new file.
func WithPerm(p os.FileMode) Option { return func(c *config) { c.perm = p } }

// WithoutLock disables the lock session around WriteContent.
// Concurrent writers then race: each still publishes only complete
// content, but the winner is arbitrary.
func WithoutLock() Option { return func(c *config) { c.useLock = false } }

// WithLockTimeout bounds how long WriteContent waits for the lock.
// Zero means a single immediate attempt; the default waits forever.
func WithLockTimeout(d time.Duration) Option { return func(c *config) { c.timeout = d } }
