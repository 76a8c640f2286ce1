package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/lexkit/internal/watcher"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func startWatcher(t *testing.T, files ...string) <-chan []string {
	t.Helper()
	w, err := watcher.New(watcher.Config{Files: files, DebounceDur: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err)
	return onChange
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.hpp")
	writeFile(t, path, "template")

	onChange := startWatcher(t, path)

	for i := 0; i < 10; i++ {
		writeFile(t, path, fmt.Sprintf("template<T%d>", i))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case changed := <-onChange:
		require.Equal(t, []string{path}, changed)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_BatchesSeveralFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.hpp")
	b := filepath.Join(dir, "b.hpp")
	writeFile(t, a, "")
	writeFile(t, b, "")

	onChange := startWatcher(t, b, a)

	writeFile(t, b, "struct B")
	writeFile(t, a, "struct A")

	select {
	case changed := <-onChange:
		require.Equal(t, []string{a, b}, changed)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "a.hpp")
	other := filepath.Join(dir, "notes.txt")
	writeFile(t, watched, "")
	writeFile(t, other, "initial")

	onChange := startWatcher(t, watched)

	writeFile(t, other, "changed")

	select {
	case <-onChange:
		t.Fatal("should not notify for unwatched files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.hpp")
	writeFile(t, path, "")

	w, err := watcher.New(watcher.DefaultConfig(path))
	require.NoError(t, err)
	_, err = w.Start()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestNew_NoFiles(t *testing.T) {
	_, err := watcher.New(watcher.Config{})
	require.ErrorContains(t, err, "no files")
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("a.hpp", "b.hpp")
	assert.Equal(t, []string{"a.hpp", "b.hpp"}, cfg.Files)
	assert.Equal(t, 300*time.Millisecond, cfg.DebounceDur)
}
