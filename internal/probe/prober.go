// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具
//
// Package probe runs the probing stages of media files and fans batches of
// them out concurrently.

package probe

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ZSC714725/reelprobe/internal/ffmpeg"
	"github.com/ZSC714725/reelprobe/internal/ffmpeg/parse"
	"github.com/ZSC714725/reelprobe/internal/logger"
	"github.com/ZSC714725/reelprobe/internal/media"
	"github.com/ZSC714725/reelprobe/internal/process"
	"github.com/ZSC714725/reelprobe/internal/thumbnail"
)

// Config for a Prober
type Config struct {
	FFmpeg     ffmpeg.FFmpeg
	Thumbnails *thumbnail.Extractor
	Planner    thumbnail.Planner
	Logger     logger.Logger
}

// Prober runs the stage sequence of single jobs.
type Prober struct {
	ffmpeg  ffmpeg.FFmpeg
	thumbs  *thumbnail.Extractor
	planner thumbnail.Planner
	logger  logger.Logger
}

// NewProber creates a Prober. Thumbnails may be nil to skip frame extraction.
func NewProber(config Config) *Prober {
	p := &Prober{
		ffmpeg:  config.FFmpeg,
		thumbs:  config.Thumbnails,
		planner: config.Planner,
		logger:  config.Logger,
	}
	if p.logger == nil {
		p.logger = logger.Nop()
	}
	if p.planner.Width <= 0 && p.planner.Height <= 0 {
		p.planner = thumbnail.DefaultPlanner
	}
	return p
}

// NewJob creates a pending job for item. It is cancelled together with ctx.
func (p *Prober) NewJob(ctx context.Context, item media.Item) *Job {
	return newJob(ctx, item, p.ffmpeg.NewLog())
}

func stages(kind media.Kind) []State {
	switch kind {
	case media.KindVideo:
		return []State{StateProbingGeneric, StateProbingVideoDetail, StateExtractingThumbnail}
	case media.KindAudio:
		return []State{StateProbingGeneric, StateProbingAudioDetail}
	case media.KindImage:
		return []State{StateProbingVideoDetail, StateExtractingThumbnail}
	}
	return nil
}

// Run drives job through its stages and returns when it is complete.
// stillQueued is consulted before every stage and may be nil.
func (p *Prober) Run(job *Job, stillQueued func() bool) {
	defer job.complete()

	item := job.item
	log := logger.WithPrefix(p.logger, fmt.Sprintf("probe %s: ", item.ID))

	if fi, err := os.Stat(item.Path); err == nil {
		job.update(func(r *media.Result) { r.Size = fi.Size() })
	} else {
		log.Info("stat %s: %v", item.Path, err)
	}

	for _, stage := range stages(item.Kind) {
		if job.ctx.Err() != nil || (stillQueued != nil && !stillQueued()) {
			job.fail(ErrCancelled)
			return
		}
		job.setState(stage)
		log.Debug("%s", stage)

		var err error
		switch stage {
		case StateProbingGeneric:
			err = p.pass(job, log, parse.GenericRules)
		case StateProbingVideoDetail:
			err = p.pass(job, log, parse.VideoRules)
		case StateProbingAudioDetail:
			err = p.pass(job, log, parse.AudioRules)
		case StateExtractingThumbnail:
			p.thumbnail(job, log)
		}

		if err != nil {
			job.fail(err)
			return
		}
	}

	if job.ctx.Err() != nil {
		job.fail(ErrCancelled)
	}
}

// pass runs FFmpeg once in probing mode. Only launch failures and
// cancellation are returned, anything else degrades to absent facts.
func (p *Prober) pass(job *Job, log logger.Logger, rules parse.Rules) error {
	item := job.item
	parser := p.ffmpeg.NewParser(parse.Config{
		Rules:     rules,
		FrameRate: item.Kind == media.KindVideo || media.IsGIF(item.Path),
		Log:       job.log,
	})

	early := &earlyStop{parser: parser}
	proc, err := p.ffmpeg.New(ffmpeg.ProcessConfig{
		Command: ffmpeg.ProbeArgs(item.Path),
		Parser:  early,
		Logger:  log,
		OnStateChange: func(from, to string) {
			log.Debug("ffmpeg %s -> %s", from, to)
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", process.ErrLaunchFailed, err)
	}
	early.proc = proc

	_, err = proc.Run(job.ctx)
	job.update(func(r *media.Result) { r.Merge(parser.Facts()) })

	switch {
	case err == nil:
	case errors.Is(err, process.ErrLaunchFailed):
		log.Error("%v", err)
		return err
	case job.ctx.Err() != nil:
		return ErrCancelled
	case errors.Is(err, process.ErrKilled) && parser.Done():
		// stopped after every fact was locked
	default:
		// ffmpeg -i without an output always exits 1
		log.Info("%v", err)
	}
	return nil
}

func (p *Prober) thumbnail(job *Job, log logger.Logger) {
	if p.thumbs == nil {
		return
	}
	item := job.item
	r := job.Result()

	plan, err := p.planner.Plan(item.Kind, r.Duration, r.Resolution)
	if err != nil {
		log.Debug("no thumbnail: %v", err)
		return
	}

	out := process.ParserFunc(job.log.Add)
	if file, ok := p.thumbs.Extract(job.ctx, item.Path, plan, out); ok {
		job.update(func(r *media.Result) { r.Thumbnail = file })
	}
}

// earlyStop kills the process as soon as the parser has locked all facts.
type earlyStop struct {
	parser parse.Parser
	proc   process.Process
}

func (e *earlyStop) Parse(line string) uint64 {
	n := e.parser.Parse(line)
	if n > 0 && e.parser.Done() {
		e.proc.Kill()
	}
	return n
}
