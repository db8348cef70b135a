// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package thumbnail

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lithammer/shortuuid/v4"
)

// Dir is the directory shared by all jobs of the process. It is created on
// first use and reused afterwards. Files in it are written once under random
// names.
type Dir struct {
	path string
	once sync.Once
	err  error
}

// NewDir returns a Dir rooted at path without touching the filesystem.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Path creates the directory if needed and returns it.
func (d *Dir) Path() (string, error) {
	d.once.Do(func() {
		if err := os.MkdirAll(d.path, 0o755); err != nil {
			d.err = fmt.Errorf("create thumbnail directory: %w", err)
		}
	})
	return d.path, d.err
}

// NewFile returns a fresh, unused file name inside the directory.
func (d *Dir) NewFile() (string, error) {
	dir, err := d.Path()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, shortuuid.New()+".png"), nil
}

// Contains reports whether file lives directly inside the directory.
func (d *Dir) Contains(file string) bool {
	return filepath.Dir(filepath.Clean(file)) == filepath.Clean(d.path)
}

// Purge removes every file in the directory. The directory itself stays so
// that running jobs can still write to it.
func (d *Dir) Purge() error {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
