// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package process

import "time"

// Parser consumes process output (FFmpeg stdout and stderr) one line at a
// time. The returned value is the number of facts the line produced.
type Parser interface {
	Parse(line string) uint64
}

// ParserFunc adapts a plain line callback to Parser.
type ParserFunc func(line string)

func (f ParserFunc) Parse(line string) uint64 {
	f(line)
	return 0
}

// Line is a timestamped log line
type Line struct {
	Timestamp time.Time
	Data      string
}

type nullParser struct{}

func (p *nullParser) Parse(line string) uint64 { return 0 }
