package watch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func startWatcher(t *testing.T, path string) *Watcher {
	t.Helper()
	w, err := New(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_ReportsWrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "records.csv")
	if err := os.WriteFile(path, []byte("sender,url,domain\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, path)

	if err := os.WriteFile(path, []byte("sender,url,domain\na,u,d\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Changes:
		if got != w.Path {
			t.Errorf("change path = %q, want %q", got, w.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestWatcher_ReportsRenameReplace(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "records.csv")
	if err := os.WriteFile(path, []byte("v1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, path)

	tmp := filepath.Join(dir, "records.csv.tmp")
	if err := os.WriteFile(tmp, []byte("v2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changes:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change after rename")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "records.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, path)

	if err := os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Changes:
		t.Fatalf("unexpected change for %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "records.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, path)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte('0' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-w.Changes:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	select {
	case <-w.Changes:
		t.Fatal("burst of writes produced more than one change")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNew_MissingDirFailsOnStart(t *testing.T) {
	t.Parallel()
	w, err := New(filepath.Join(t.TempDir(), "missing", "records.csv"), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
	if err := w.Start(); err == nil {
		t.Fatal("Start on a missing directory should fail")
	}
	if err := w.watcher.Add(t.TempDir()); !errors.Is(err, fsnotify.ErrClosed) {
		t.Errorf("after failed Start, Add = %v, want %v", err, fsnotify.ErrClosed)
	}
}
