// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package process

import (
	"errors"
	"fmt"
)

var (
	ErrLaunchFailed   = errors.New("process launch failed")
	ErrExitedNonZero  = errors.New("process exited with non-zero status")
	ErrKilled         = errors.New("process killed")
	ErrAlreadyStarted = errors.New("process already started")
)

// ExitError reports a non-zero exit code. It matches ErrExitedNonZero.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Is(target error) bool {
	return target == ErrExitedNonZero
}
