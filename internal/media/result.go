// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package media

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZSC714725/reelprobe/internal/ffmpeg/parse"
)

// StreamCounts counts streams and chapters by kind.
type StreamCounts = parse.StreamCounts

// Result 探测结果. 空字符串和 nil 表示未观察到, 而不是零值
type Result struct {
	Size       int64         `json:"size"`
	Duration   string        `json:"duration,omitempty"`
	Resolution string        `json:"resolution,omitempty"`
	Bitrate    string        `json:"bitrate,omitempty"`
	FrameRate  string        `json:"frame_rate,omitempty"`
	SampleRate string        `json:"sample_rate,omitempty"`
	Thumbnail  string        `json:"thumbnail,omitempty"`
	Streams    *StreamCounts `json:"streams,omitempty"`
}

// Merge fills the facts of r that are still absent from f. Facts already
// present are never overwritten.
func (r *Result) Merge(f parse.Facts) {
	fill(&r.Duration, f.Duration)
	fill(&r.Resolution, f.Resolution)
	fill(&r.Bitrate, f.Bitrate)
	fill(&r.FrameRate, f.FrameRate)
	fill(&r.SampleRate, f.SampleRate)
	if r.Streams == nil && f.Streams != nil {
		s := *f.Streams
		r.Streams = &s
	}
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// Summary renders the result as one line, e.g.
// "1920x1080 • 00:01:23.45 • 5000 kb/s • 30 fps • 48000 Hz • 50.5 MB".
func (r Result) Summary() string {
	var parts []string
	for _, v := range []string{r.Resolution, r.Duration, r.Bitrate, r.FrameRate, r.SampleRate} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	parts = append(parts, HumanSize(r.Size))

	if s := r.Streams; s != nil && s.Video+s.Audio+s.Subtitle+s.Chapter > 1 {
		var streams []string
		streams = appendCount(streams, s.Video, "video")
		streams = appendCount(streams, s.Audio, "audio")
		streams = appendCount(streams, s.Subtitle, "subtitle")
		streams = appendCount(streams, s.Attachment, "attachment")
		streams = appendCount(streams, s.Chapter, "chapter")
		parts = append(parts, streams...)
	}
	return strings.Join(parts, " • ")
}

func appendCount(dst []string, n int, noun string) []string {
	switch {
	case n == 1:
		return append(dst, fmt.Sprintf("1 %s", noun))
	case n > 1:
		return append(dst, fmt.Sprintf("%d %ss", n, noun))
	}
	return dst
}

// HumanSize 格式化文件大小, 最多保留两位小数
func HumanSize(size int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	v := float64(size)
	switch {
	case size >= gb:
		return trimFloat(v/gb) + " GB"
	case size >= mb:
		return trimFloat(v/mb) + " MB"
	}
	return trimFloat(v/kb) + " KB"
}

func trimFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
