// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package ffmpeg

import (
	"time"

	"github.com/ZSC714725/reelprobe/internal/ffmpeg/parse"
)

// ProbeArgs builds the diagnostic invocation `ffmpeg -i <path>`. FFmpeg prints
// the input description and exits non-zero because no output is given.
func ProbeArgs(path string) []string {
	return []string{"-hide_banner", "-nostdin", "-i", path}
}

// FrameArgs builds an invocation writing a single scaled frame of path to
// output. A nil seek starts at the beginning of the input.
func FrameArgs(seek *time.Duration, path, scale, output string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y"}
	if seek != nil {
		args = append(args, "-ss", parse.FormatClock(*seek))
	}
	return append(args, "-i", path, "-frames:v", "1", "-vf", scale, output)
}
