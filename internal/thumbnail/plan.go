// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具
//
// Package thumbnail decides where and how to grab a preview frame and
// extracts it with FFmpeg into a shared temporary directory.

package thumbnail

import (
	"errors"
	"fmt"
	"time"

	"github.com/ZSC714725/reelprobe/internal/ffmpeg/parse"
	"github.com/ZSC714725/reelprobe/internal/media"
)

var (
	ErrNoResolution = errors.New("no resolution known")
	ErrNoDuration   = errors.New("no duration known")
)

const (
	DefaultWidth  = 196
	DefaultHeight = 110
)

// Plan is the seek offset and scale filter of one frame extraction.
type Plan struct {
	// Seek is nil for images.
	Seek  *time.Duration
	Scale string
}

// Planner holds the bounding box of thumbnails.
type Planner struct {
	Width  int
	Height int
}

// DefaultPlanner scales to at most 196px wide or 110px high.
var DefaultPlanner = Planner{Width: DefaultWidth, Height: DefaultHeight}

// Plan computes the extraction plan from the facts probed so far.
func (p Planner) Plan(kind media.Kind, duration, resolution string) (Plan, error) {
	if resolution == "" {
		return Plan{}, ErrNoResolution
	}
	w, h, err := parse.ParseResolution(resolution)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrNoResolution, err)
	}

	plan := Plan{Scale: p.scale(w, h)}
	if kind == media.KindImage {
		return plan, nil
	}

	if duration == "" {
		return Plan{}, ErrNoDuration
	}
	d, err := parse.ParseDuration(duration)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrNoDuration, err)
	}
	seek := SeekOffset(d)
	plan.Seek = &seek
	return plan, nil
}

func (p Planner) scale(w, h int) string {
	width, height := p.Width, p.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if w >= h {
		return fmt.Sprintf("scale=w=%d:h=-1", width)
	}
	return fmt.Sprintf("scale=w=-1:h=%d", height)
}

// SeekOffset 时长超过 5 秒取第 5 秒, 超过 2 秒取第 2 秒, 否则取第一帧
func SeekOffset(d time.Duration) time.Duration {
	switch {
	case d > 5*time.Second:
		return 5 * time.Second
	case d > 2*time.Second:
		return 2 * time.Second
	}
	return 0
}
