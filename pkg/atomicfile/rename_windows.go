//go:build windows

package atomicfile

import (
	"fmt"
	"os"
)

// replaceFile renames tmp onto target. When the rename is refused
// because target exists, the destination is removed first and the
// rename retried; the gap between removal and rename is a known risk
// window on this platform only.
func replaceFile(tmp, target string) error {
	if err := os.Rename(tmp, target); err == nil {
		return nil
	}
	if _, err := os.Stat(target); err == nil {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("failed to replace %s: %w", target, err)
		}
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to rename temporary file %s to %s: %w", tmp, target, err)
	}
	return nil
}
