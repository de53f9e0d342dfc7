package atomicfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"safewrite/pkg/lockfile"
)

func TestWriteContentFreshBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	content := []byte{0x00, 0x01, 0xff}

	if err := WriteContent(path, content); err != nil {
		t.Fatalf("WriteContent failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content = %v, want %v", got, content)
	}
}

func TestWriteContentShrinkAndGrow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	tests := []struct {
		name    string
		content string
	}{
		{"initial", "some initial content"},
		{"shrink", "tiny"},
		{"grow", "content that is considerably longer than what was there before"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := WriteContent(path, []byte(tt.content)); err != nil {
				t.Fatalf("WriteContent failed: %v", err)
			}
			if got := mustRead(t, path); got != tt.content {
				t.Errorf("content = %q, want %q", got, tt.content)
			}
		})
	}
}

func TestWriteContentWithoutLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	if err := WriteContent(path, []byte("unlocked"), WithoutLock()); err != nil {
		t.Fatalf("WriteContent failed: %v", err)
	}
	if got := mustRead(t, path); got != "unlocked" {
		t.Errorf("content = %q, want %q", got, "unlocked")
	}
}

func TestDoFailureRestoresNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	mustWrite(t, path, "old")
	injected := errors.New("injected failure")

	err := Do(path, ModeWrite, func(w *File) error {
		if _, err := w.WriteString("partial"); err != nil {
			return err
		}
		return injected
	})
	if !errors.Is(err, injected) {
		t.Fatalf("Do returned %v, want the injected error unchanged", err)
	}
	if got := mustRead(t, path); got != "old" {
		t.Errorf("target content = %q after failed write, want %q", got, "old")
	}
	if left := tempLeftovers(t, dir, "data.txt", DefaultTempSuffix); len(left) != 0 {
		t.Errorf("temporary files left behind: %v", left)
	}
}

func TestDoCleansUpOnPanic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	mustWrite(t, path, "old")

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the panic to propagate")
			}
		}()
		_ = Do(path, ModeWrite, func(w *File) error {
			_, _ = w.WriteString("doomed")
			panic("caller blew up")
		})
	}()

	if got := mustRead(t, path); got != "old" {
		t.Errorf("target content = %q after panic, want %q", got, "old")
	}
	if left := tempLeftovers(t, dir, "data.txt", DefaultTempSuffix); len(left) != 0 {
		t.Errorf("temporary files left behind: %v", left)
	}
}

func TestDoLockedFailureCreatesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")

	held, err := lockfile.Acquire(path, 0)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer held.Release()

	called := false
	err = DoLocked(path, ModeWrite, 0, func(w *File) error {
		called = true
		return nil
	})
	if !errors.Is(err, lockfile.ErrAlreadyLocked) {
		t.Fatalf("expected ErrAlreadyLocked, got %v", err)
	}
	if called {
		t.Error("writer ran without the lock")
	}
	if left := tempLeftovers(t, dir, "data.txt", DefaultTempSuffix); len(left) != 0 {
		t.Errorf("temporary file created despite lock failure: %v", left)
	}
}

func TestDoLockedReleasesOnWriteError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	injected := errors.New("injected failure")

	err := DoLocked(path, ModeWrite, 0, func(w *File) error { return injected })
	if !errors.Is(err, injected) {
		t.Fatalf("DoLocked returned %v, want the injected error", err)
	}

	l, err := lockfile.Acquire(path, 0)
	if err != nil {
		t.Fatalf("lock still held after failed DoLocked: %v", err)
	}
	_ = l.Release()
}

func TestConcurrentLockedWritersNeverInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.txt")

	const writers = 6
	const size = 256 * 1024
	payloads := make([][]byte, writers)
	for i := range payloads {
		payloads[i] = bytes.Repeat([]byte{byte('a' + i)}, size)
	}

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(p []byte) {
			defer wg.Done()
			if err := WriteContent(path, p); err != nil {
				t.Errorf("WriteContent failed: %v", err)
			}
		}(payloads[i])
	}
	wg.Wait()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	for _, p := range payloads {
		if bytes.Equal(got, p) {
			return
		}
	}
	t.Fatalf("final content (%d bytes) matches no single writer's payload", len(got))
}

func TestConcurrentAppendersAllLandUnderLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.txt")

	const writers = 5
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := DoLocked(path, ModeAppend, lockfile.NoTimeout, func(w *File) error {
				_, err := fmt.Fprintf(w, "entry %d\n", n)
				return err
			})
			if err != nil {
				t.Errorf("locked append failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got := mustRead(t, path)
	lines := bytes.Count([]byte(got), []byte("\n"))
	if lines != writers {
		t.Errorf("journal has %d entries, want %d:\n%s", lines, writers, got)
	}
	for i := 0; i < writers; i++ {
		if !bytes.Contains([]byte(got), []byte(fmt.Sprintf("entry %d\n", i))) {
			t.Errorf("entry %d missing from journal:\n%s", i, got)
		}
	}
}

func TestWriteContentSymlink(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "t")
	link := filepath.Join(dir, "l")
	mustWrite(t, real, "old")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks not supported here: %v", err)
	}

	if err := WriteContent(link, []byte("new")); err != nil {
		t.Fatalf("WriteContent through symlink failed: %v", err)
	}

	info, err := os.Lstat(link)
	if err != nil {
		t.Fatalf("lstat failed: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatal("symlink was replaced by the write")
	}
	if got := mustRead(t, real); got != "new" {
		t.Errorf("real file content = %q, want %q", got, "new")
	}
}

func TestWriteContentCustomSuffixLeavesNoArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")

	if err := WriteContent(path, []byte("x"), WithTempSuffix("..part")); err != nil {
		t.Fatalf("WriteContent failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		switch e.Name() {
		case "data.txt", "data.txt.lock":
		default:
			t.Errorf("unexpected artifact in directory: %s", e.Name())
		}
	}
}
