// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/ZSC714725/reelprobe/internal/ffmpeg/parse"
	"github.com/ZSC714725/reelprobe/internal/ffmpeg/skills"
	"github.com/ZSC714725/reelprobe/internal/logger"
	"github.com/ZSC714725/reelprobe/internal/process"
)

// FFmpeg manages the FFmpeg binary and the processes started from it
type FFmpeg interface {
	New(config ProcessConfig) (process.Process, error)
	NewParser(config parse.Config) parse.Parser
	NewLog() *parse.Log
	ValidateInput(path string) bool
	Skills() skills.Skills
	Stats() Stats
}

// ProcessConfig for creating a process
type ProcessConfig struct {
	Command       []string
	Parser        process.Parser
	Logger        logger.Logger
	OnStateChange func(from, to string)
}

// Config for FFmpeg
type Config struct {
	Binary         string
	MaxLogLines    int
	StaleTimeout   time.Duration
	ValidatorInput Validator
	// Monitor enables per-process CPU and memory sampling.
	Monitor bool
	// SkipCheck skips the -version capability check.
	SkipCheck bool
}

// Stats are aggregated over every process created by one FFmpeg.
type Stats struct {
	Started    uint64 `json:"started"`
	Finished   uint64 `json:"finished"`
	Failed     uint64 `json:"failed"`
	Killed     uint64 `json:"killed"`
	Running    int64  `json:"running"`
	Lines      uint64 `json:"lines"`
	PeakMemory uint64 `json:"peak_memory_bytes"`
}

type ffmpeg struct {
	binary       string
	validatorIn  Validator
	skills       skills.Skills
	logLines     int
	staleTimeout time.Duration
	monitor      bool

	stats     Stats
	statsLock sync.Mutex
}

// New resolves the binary and verifies it answers like FFmpeg. Any error
// wraps ErrLaunchFailed.
func New(config Config) (FFmpeg, error) {
	binary, err := exec.LookPath(config.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ffmpeg binary: %v", ErrLaunchFailed, err)
	}

	f := &ffmpeg{
		binary:       binary,
		logLines:     config.MaxLogLines,
		staleTimeout: config.StaleTimeout,
		monitor:      config.Monitor,
	}

	if f.logLines <= 0 {
		f.logLines = 100
	}

	if config.ValidatorInput != nil {
		f.validatorIn = config.ValidatorInput
	} else {
		f.validatorIn, _ = NewValidator(nil, nil)
	}

	if !config.SkipCheck {
		s, err := skills.New(f.binary)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid ffmpeg: %v", ErrLaunchFailed, err)
		}
		f.skills = s
	}

	return f, nil
}

func (f *ffmpeg) New(config ProcessConfig) (process.Process, error) {
	var monitor process.Monitor
	if f.monitor {
		monitor = process.NewSysMonitor()
	}

	proc, err := process.New(process.Config{
		Binary:       f.binary,
		Args:         config.Command,
		StaleTimeout: f.staleTimeout,
		Parser:       config.Parser,
		Monitor:      monitor,
		Logger:       wrapLogger(config.Logger),
		OnStateChange: func(from, to string) {
			f.countState(from, to)
			if config.OnStateChange != nil {
				config.OnStateChange(from, to)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return &trackedProcess{Process: proc, ffmpeg: f}, nil
}

func (f *ffmpeg) NewParser(config parse.Config) parse.Parser {
	return parse.New(config)
}

func (f *ffmpeg) NewLog() *parse.Log {
	return parse.NewLog(f.logLines)
}

func (f *ffmpeg) ValidateInput(path string) bool {
	return f.validatorIn.IsValid(path)
}

func (f *ffmpeg) Skills() skills.Skills {
	return f.skills
}

func (f *ffmpeg) Stats() Stats {
	f.statsLock.Lock()
	defer f.statsLock.Unlock()
	return f.stats
}

func (f *ffmpeg) countState(from, to string) {
	f.statsLock.Lock()
	defer f.statsLock.Unlock()

	if from == "running" {
		f.stats.Running--
	}

	switch to {
	case "starting":
		f.stats.Started++
	case "running":
		f.stats.Running++
	case "finished":
		f.stats.Finished++
	case "failed":
		f.stats.Failed++
	case "killed":
		f.stats.Killed++
	}
}

type trackedProcess struct {
	process.Process
	ffmpeg *ffmpeg
}

func (p *trackedProcess) Run(ctx context.Context) (process.Outcome, error) {
	outcome, err := p.Process.Run(ctx)

	f := p.ffmpeg
	f.statsLock.Lock()
	f.stats.Lines += outcome.Lines
	if outcome.PeakMemory > f.stats.PeakMemory {
		f.stats.PeakMemory = outcome.PeakMemory
	}
	f.statsLock.Unlock()

	return outcome, err
}

func wrapLogger(l logger.Logger) *loggerWrapper {
	return &loggerWrapper{logger: l, prefix: "ffmpeg: "}
}

type loggerWrapper struct {
	logger logger.Logger
	prefix string
}

func (w *loggerWrapper) Info(format string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Info(w.prefix+format, args...)
	}
}

func (w *loggerWrapper) Error(format string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Error(w.prefix+format, args...)
	}
}

func (w *loggerWrapper) Debug(format string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Debug(w.prefix+format, args...)
	}
}
