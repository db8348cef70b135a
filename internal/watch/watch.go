// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具
//
// Package watch notifies about queued files disappearing from disk.

package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ZSC714725/reelprobe/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听文件删除. 监听的是文件所在目录, 删除和重命名都视为文件消失
type Watcher struct {
	fs     *fsnotify.Watcher
	logger logger.Logger

	dirs   map[string]int
	subs   map[string]map[uint64]func()
	nextID uint64
	lock   sync.Mutex

	done chan struct{}
}

// New starts a Watcher. It must be closed with Close.
func New(l logger.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = logger.Nop()
	}
	w := &Watcher{
		fs:     fs,
		logger: l,
		dirs:   make(map[string]int),
		subs:   make(map[string]map[uint64]func()),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch calls onDelete once when path is removed or renamed. The returned
// stop function cancels the watch and may be called more than once.
func (w *Watcher) Watch(path string, onDelete func()) (func(), error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)

	w.lock.Lock()
	defer w.lock.Unlock()

	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++

	w.nextID++
	id := w.nextID
	if w.subs[path] == nil {
		w.subs[path] = make(map[uint64]func())
	}
	w.subs[path][id] = onDelete

	var once sync.Once
	stop := func() {
		once.Do(func() {
			w.lock.Lock()
			defer w.lock.Unlock()
			w.unsubscribe(path, id)
		})
	}
	return stop, nil
}

// must hold w.lock
func (w *Watcher) unsubscribe(path string, id uint64) {
	if _, ok := w.subs[path][id]; !ok {
		return
	}
	delete(w.subs[path], id)
	if len(w.subs[path]) == 0 {
		delete(w.subs, path)
	}

	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		// the directory may be gone already
		w.fs.Remove(dir)
	}
}

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.fire(filepath.Clean(event.Name))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher: %v", err)
		}
	}
}

func (w *Watcher) fire(path string) {
	w.lock.Lock()
	var callbacks []func()
	for id, fn := range w.subs[path] {
		callbacks = append(callbacks, fn)
		w.unsubscribe(path, id)
	}
	w.lock.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Close stops watching all files. Pending callbacks are dropped.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}
