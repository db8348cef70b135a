// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package thumbnail

import (
	"context"
	"errors"
	"os"

	"github.com/ZSC714725/reelprobe/internal/ffmpeg"
	"github.com/ZSC714725/reelprobe/internal/logger"
	"github.com/ZSC714725/reelprobe/internal/process"
)

// Extractor writes single scaled frames into a Dir.
type Extractor struct {
	ffmpeg ffmpeg.FFmpeg
	dir    *Dir
	logger logger.Logger
}

// NewExtractor creates an Extractor
func NewExtractor(f ffmpeg.FFmpeg, dir *Dir, l logger.Logger) *Extractor {
	if l == nil {
		l = logger.Nop()
	}
	return &Extractor{ffmpeg: f, dir: dir, logger: l}
}

// Extract grabs one frame of path according to plan. Output lines go to out,
// which may be nil. The returned path is only valid if ok is true; a failed
// extraction is not an error for the caller.
func (e *Extractor) Extract(ctx context.Context, path string, plan Plan, out process.Parser) (string, bool) {
	file, err := e.dir.NewFile()
	if err != nil {
		e.logger.Error("%s: %v", path, err)
		return "", false
	}

	proc, err := e.ffmpeg.New(ffmpeg.ProcessConfig{
		Command: ffmpeg.FrameArgs(plan.Seek, path, plan.Scale, file),
		Parser:  out,
		Logger:  e.logger,
	})
	if err != nil {
		e.logger.Error("%s: %v", path, err)
		return "", false
	}

	if _, err := proc.Run(ctx); err != nil {
		if !errors.Is(err, process.ErrKilled) {
			e.logger.Info("thumbnail of %s failed: %v", path, err)
		}
		os.Remove(file)
		return "", false
	}

	if fi, err := os.Stat(file); err != nil || fi.Size() == 0 {
		e.logger.Info("thumbnail of %s was not written", path)
		os.Remove(file)
		return "", false
	}
	return file, true
}
