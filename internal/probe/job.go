// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package probe

import (
	"context"
	"sync"

	"github.com/ZSC714725/reelprobe/internal/ffmpeg/parse"
	"github.com/ZSC714725/reelprobe/internal/media"
	"github.com/ZSC714725/reelprobe/internal/process"
)

// State of a job. Stages only ever advance in the order below.
type State string

const (
	StatePending             State = "pending"
	StateProbingGeneric      State = "probing_generic"
	StateProbingVideoDetail  State = "probing_video_detail"
	StateExtractingThumbnail State = "extracting_thumbnail"
	StateProbingAudioDetail  State = "probing_audio_detail"
	StateComplete            State = "complete"
)

// Job 单个媒体文件的探测任务
type Job struct {
	item media.Item
	log  *parse.Log

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	unwatch func()

	state  State
	result media.Result
	err    error
	lock   sync.RWMutex
}

func newJob(parent context.Context, item media.Item, log *parse.Log) *Job {
	ctx, cancel := context.WithCancel(parent)
	return &Job{
		item:   item,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  StatePending,
	}
}

func (j *Job) ID() string       { return j.item.ID }
func (j *Job) Item() media.Item { return j.item }

// State returns the current stage.
func (j *Job) State() State {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.state
}

// Done is closed when the job reached StateComplete.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result returns a copy of the facts gathered so far.
func (j *Job) Result() media.Result {
	j.lock.RLock()
	defer j.lock.RUnlock()
	r := j.result
	if r.Streams != nil {
		s := *r.Streams
		r.Streams = &s
	}
	return r
}

// Err is nil, ErrCancelled or an error wrapping process.ErrLaunchFailed.
// It is only meaningful after Done is closed.
func (j *Job) Err() error {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.err
}

// Log returns the recent FFmpeg output of all runs of this job.
func (j *Job) Log() []process.Line {
	return j.log.Lines()
}

// Cancel stops the job and kills its current FFmpeg run. It can be called
// any number of times, also after the job completed.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) setState(s State) {
	j.lock.Lock()
	j.state = s
	j.lock.Unlock()
}

func (j *Job) update(fn func(r *media.Result)) {
	j.lock.Lock()
	fn(&j.result)
	j.lock.Unlock()
}

func (j *Job) fail(err error) {
	j.lock.Lock()
	if j.err == nil {
		j.err = err
	}
	j.lock.Unlock()
}

func (j *Job) complete() {
	j.lock.Lock()
	j.state = StateComplete
	j.lock.Unlock()
	j.cancel()
	close(j.done)
}
