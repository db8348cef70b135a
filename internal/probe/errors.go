// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package probe

import "errors"

// ErrCancelled is the error of a job that was stopped before all stages ran.
// The job still carries the facts gathered until then.
var ErrCancelled = errors.New("probe cancelled")
