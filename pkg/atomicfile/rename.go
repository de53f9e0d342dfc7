//go:build !windows

package atomicfile

import (
	"fmt"
	"os"
)

// replaceFile renames tmp onto target. POSIX rename replaces an
// existing destination as a single atomic step.
func replaceFile(tmp, target string) error {
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to rename temporary file %s to %s: %w", tmp, target, err)
	}
	return nil
}
