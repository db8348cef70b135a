// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package queue

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZSC714725/reelprobe/internal/ffmpeg"
	"github.com/ZSC714725/reelprobe/internal/logger"
	"github.com/ZSC714725/reelprobe/internal/media"
	"github.com/ZSC714725/reelprobe/internal/probe"

	"github.com/lithammer/shortuuid/v4"
)

// Entry is a queued media item together with its probe result.
type Entry struct {
	media.Item
	// Result is nil until the probe of the item completed.
	Result    *media.Result
	Err       error
	CreatedAt int64
	UpdatedAt int64
}

// Probed reports whether the probe result was delivered.
func (e Entry) Probed() bool {
	return e.Result != nil
}

// Actions returns the editing actions available for the item.
func (e Entry) Actions() []media.Action {
	return media.Actions(e.Kind)
}

// Rejected is a path that was not queued.
type Rejected struct {
	Path string
	Err  error
}

// Store is the media queue. It owns the items and receives the probe results.
type Store interface {
	// Add appends paths to the queue and starts probing them.
	Add(paths []string) ([]Entry, []Rejected)
	// Insert is like Add but places the new items at index.
	Insert(index int, paths []string) ([]Entry, []Rejected)
	Get(id string) (Entry, error)
	List() []Entry
	Lookup(path string) (Entry, error)
	Remove(id string) error
	Clear()
	Job(id string) (*probe.Job, bool)

	probe.Queue
}

// Config for a Store
type Config struct {
	FFmpeg      ffmpeg.FFmpeg
	Coordinator *probe.Coordinator
	Logger      logger.Logger
}

type store struct {
	ctx         context.Context
	ffmpeg      ffmpeg.FFmpeg
	coordinator *probe.Coordinator
	logger      logger.Logger

	entries map[string]*Entry
	order   []string
	mu      sync.RWMutex
}

// NewStore creates a queue. Probes started by the queue are cancelled when
// ctx is done.
func NewStore(ctx context.Context, config Config) Store {
	s := &store{
		ctx:         ctx,
		ffmpeg:      config.FFmpeg,
		coordinator: config.Coordinator,
		logger:      config.Logger,
		entries:     make(map[string]*Entry),
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	return s
}

func (s *store) Add(paths []string) ([]Entry, []Rejected) {
	return s.Insert(-1, paths)
}

func (s *store) Insert(index int, paths []string) ([]Entry, []Rejected) {
	var rejected []Rejected
	var items []media.Item

	s.mu.Lock()

	seen := make(map[string]bool)
	for _, path := range paths {
		item, err := s.newItem(path, seen)
		if err != nil {
			rejected = append(rejected, Rejected{Path: path, Err: err})
			continue
		}
		seen[item.Path] = true
		items = append(items, item)
	}

	if index < 0 || index > len(s.order) {
		index = len(s.order)
	}
	ids := make([]string, 0, len(items))
	added := make([]Entry, 0, len(items))
	now := time.Now().Unix()
	for _, item := range items {
		e := &Entry{Item: item, CreatedAt: now, UpdatedAt: now}
		s.entries[item.ID] = e
		ids = append(ids, item.ID)
		added = append(added, *e)
	}
	s.order = append(s.order[:index], append(ids, s.order[index:]...)...)

	s.mu.Unlock()

	for _, r := range rejected {
		s.logger.Info("rejected %s: %v", r.Path, r.Err)
	}
	if len(items) > 0 && s.coordinator != nil {
		s.coordinator.ProbeAll(s.ctx, items, s)
	}
	return added, rejected
}

// must hold s.mu
func (s *store) newItem(path string, seen map[string]bool) (media.Item, error) {
	if !filepath.IsAbs(path) || !s.ffmpeg.ValidateInput(path) {
		return media.Item{}, ErrInvalidPath
	}
	path = filepath.Clean(path)
	if seen[path] || s.lookup(path) != nil {
		return media.Item{}, ErrExists
	}
	return media.NewItem(shortuuid.New(), path)
}

// must hold s.mu
func (s *store) lookup(path string) *Entry {
	for _, e := range s.entries {
		if e.Path == path {
			return e
		}
	}
	return nil
}

func (s *store) Get(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return *e, nil
}

func (s *store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.entries[id])
	}
	return out
}

func (s *store) Lookup(path string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e := s.lookup(filepath.Clean(path)); e != nil {
		return *e, nil
	}
	return Entry{}, ErrNotFound
}

func (s *store) Remove(id string) error {
	s.mu.Lock()
	if _, ok := s.entries[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if s.coordinator != nil {
		s.coordinator.Forget(id)
	}
	return nil
}

func (s *store) Clear() {
	s.mu.Lock()
	ids := s.order
	s.entries = make(map[string]*Entry)
	s.order = nil
	s.mu.Unlock()

	if s.coordinator != nil {
		for _, id := range ids {
			s.coordinator.Forget(id)
		}
	}
}

func (s *store) Job(id string) (*probe.Job, bool) {
	if s.coordinator == nil {
		return nil, false
	}
	return s.coordinator.Job(id)
}

func (s *store) NotifyItemProbed(id string, result media.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.Result = &result
	e.Err = err
	e.UpdatedAt = time.Now().Unix()

	if err != nil {
		s.logger.Info("probed %s: %s (%v)", e.Name, result.Summary(), err)
		return
	}
	s.logger.Info("probed %s: %s", e.Name, result.Summary())
}

func (s *store) NotifyItemRemoved(id string) {
	if err := s.Remove(id); err != nil {
		return
	}
	s.logger.Info("removed %s from the queue, the file is gone", id)
}

func (s *store) IsStillQueued(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[id]
	return ok
}

var _ probe.Queue = (*store)(nil)

func (e Entry) String() string {
	if e.Result == nil {
		return fmt.Sprintf("%s (%s)", e.Name, e.Kind)
	}
	return fmt.Sprintf("%s (%s): %s", e.Name, e.Kind, e.Result.Summary())
}
