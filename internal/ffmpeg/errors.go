// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package ffmpeg

import "github.com/ZSC714725/reelprobe/internal/process"

// ErrLaunchFailed is returned by New when the configured binary is missing or
// unusable, and by process runs that could not be started.
var ErrLaunchFailed = process.ErrLaunchFailed
