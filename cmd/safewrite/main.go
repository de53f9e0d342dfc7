// Command safewrite reads stdin and writes it to a file atomically,
// holding an exclusive lock for the duration of the write.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"safewrite/pkg/atomicfile"
	"safewrite/pkg/lockfile"
)

func main() {
	log.SetFlags(0)
	if err := newRootCommand().Execute(); err != nil {
		log.Fatalf("safewrite: %v", err)
	}
}

func newRootCommand() *cobra.Command {
	var (
		appendMode bool
		updateMode bool
		noLock     bool
		timeout    = lockfile.NoTimeout
		suffix     = atomicfile.DefaultTempSuffix
	)

	root := &cobra.Command{
		Use:          "safewrite <path>",
		Short:        "Atomically write stdin to a file under an exclusive lock",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if appendMode && updateMode {
				return fmt.Errorf("--append and --update are mutually exclusive")
			}
			mode := atomicfile.ModeWrite
			switch {
			case appendMode:
				mode = atomicfile.ModeAppend
			case updateMode:
				mode = atomicfile.ModeUpdate
			}
			return run(args[0], cmd.InOrStdin(), mode, noLock, timeout, suffix)
		},
	}
	root.Flags().BoolVar(&appendMode, "append", false, "preserve existing content and append stdin after it")
	root.Flags().BoolVar(&updateMode, "update", false, "preserve existing content and overwrite it from the start")
	root.Flags().BoolVar(&noLock, "no-lock", false, "skip the lock session (no serialization against concurrent writers)")
	root.Flags().DurationVar(&timeout, "timeout", lockfile.NoTimeout, "lock acquisition timeout (0 tries once, negative waits forever)")
	root.Flags().StringVar(&suffix, "suffix", atomicfile.DefaultTempSuffix, "temporary file suffix")
	return root
}

func run(path string, in io.Reader, mode atomicfile.Mode, noLock bool, timeout time.Duration, suffix string) error {
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("target directory does not exist: %s", dir)
	}

	write := func(w *atomicfile.File) error {
		_, err := w.ReadFrom(in)
		return err
	}
	opts := []atomicfile.Option{atomicfile.WithTempSuffix(suffix)}
	if noLock {
		return atomicfile.Do(path, mode, write, opts...)
	}
	return atomicfile.DoLocked(path, mode, timeout, write, opts...)
}
