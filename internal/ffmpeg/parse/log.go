// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package parse

import (
	"container/ring"
	"sync"
	"time"

	"github.com/ZSC714725/reelprobe/internal/process"
)

// Log keeps the last N output lines of all runs belonging to one job.
type Log struct {
	log  *ring.Ring
	lock sync.RWMutex
}

// NewLog creates a Log holding at most lines entries (100 if lines <= 0).
func NewLog(lines int) *Log {
	if lines <= 0 {
		lines = 100
	}
	return &Log{log: ring.New(lines)}
}

func (l *Log) Add(line string) {
	l.lock.Lock()
	l.log.Value = process.Line{Timestamp: time.Now(), Data: line}
	l.log = l.log.Next()
	l.lock.Unlock()
}

// Lines returns the buffered lines, oldest first.
func (l *Log) Lines() []process.Line {
	var out []process.Line
	l.lock.RLock()
	l.log.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(process.Line))
		}
	})
	l.lock.RUnlock()
	return out
}
