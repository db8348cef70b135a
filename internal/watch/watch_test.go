// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Errorf("callback for %s, want %s", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no callback for %s", want)
	}
}

func TestWatch_RemoveAndRename(t *testing.T) {
	dir := t.TempDir()
	w := newWatcher(t)

	removed := newFile(t, dir, "a.mp4")
	renamed := newFile(t, dir, "b.mp4")
	other := newFile(t, dir, "c.mp4")

	fired := make(chan string, 3)
	for _, path := range []string{removed, renamed, other} {
		path := path
		if _, err := w.Watch(path, func() { fired <- path }); err != nil {
			t.Fatal(err)
		}
	}

	if err := os.Remove(removed); err != nil {
		t.Fatal(err)
	}
	waitFor(t, fired, removed)

	if err := os.Rename(renamed, filepath.Join(dir, "moved.mp4")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, fired, renamed)

	select {
	case got := <-fired:
		t.Errorf("unexpected callback for %s", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatch_Stop(t *testing.T) {
	dir := t.TempDir()
	w := newWatcher(t)

	path := newFile(t, dir, "a.mp4")
	fired := make(chan string, 1)
	stop, err := w.Watch(path, func() { fired <- path })
	if err != nil {
		t.Fatal(err)
	}
	stop()
	stop()

	os.Remove(path)
	select {
	case <-fired:
		t.Error("callback after stop")
	case <-time.After(200 * time.Millisecond):
	}

	w.lock.Lock()
	defer w.lock.Unlock()
	if len(w.dirs) != 0 || len(w.subs) != 0 {
		t.Errorf("dirs = %v, subs = %v", w.dirs, w.subs)
	}
}

func TestWatch_MissingFile(t *testing.T) {
	w := newWatcher(t)
	if _, err := w.Watch(filepath.Join(t.TempDir(), "nope.mp4"), func() {}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWatch_StopFromCallback(t *testing.T) {
	dir := t.TempDir()
	w := newWatcher(t)
	path := newFile(t, dir, "a.mp4")

	fired := make(chan string, 1)
	stopc := make(chan func(), 1)
	stop, err := w.Watch(path, func() {
		(<-stopc)()
		fired <- path
	})
	if err != nil {
		t.Fatal(err)
	}
	stopc <- stop
	os.Remove(path)
	waitFor(t, fired, path)
}
