// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package queue

import "errors"

var (
	ErrNotFound    = errors.New("item not found")
	ErrExists      = errors.New("item already queued")
	ErrInvalidPath = errors.New("invalid path")
)
