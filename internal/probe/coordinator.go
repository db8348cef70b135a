// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package probe

import (
	"context"
	"sync"

	"github.com/ZSC714725/reelprobe/internal/logger"
	"github.com/ZSC714725/reelprobe/internal/media"
)

// Queue is the owner of the probed items.
type Queue interface {
	// NotifyItemProbed delivers the result of one item as soon as its job
	// completed. err is nil, ErrCancelled or wraps process.ErrLaunchFailed.
	NotifyItemProbed(id string, result media.Result, err error)
	// NotifyItemRemoved tells the queue that the file of an item is gone.
	NotifyItemRemoved(id string)
	IsStillQueued(id string) bool
}

// Watcher reports the deletion of files.
type Watcher interface {
	Watch(path string, onDelete func()) (stop func(), err error)
}

// Coordinator 并发执行一批探测任务, 每个任务完成后立即通知队列
type Coordinator struct {
	prober  *Prober
	watcher Watcher
	logger  logger.Logger

	jobs map[string]*Job
	lock sync.RWMutex
	wg   sync.WaitGroup
}

// NewCoordinator creates a Coordinator. watcher may be nil.
func NewCoordinator(prober *Prober, watcher Watcher, l logger.Logger) *Coordinator {
	if l == nil {
		l = logger.Nop()
	}
	return &Coordinator{
		prober:  prober,
		watcher: watcher,
		logger:  l,
		jobs:    make(map[string]*Job),
	}
}

// ProbeAll starts one job per item and returns without waiting for them.
// A job already known under the same item ID is cancelled and replaced.
func (c *Coordinator) ProbeAll(ctx context.Context, items []media.Item, q Queue) []*Job {
	jobs := make([]*Job, 0, len(items))

	for _, item := range items {
		job := c.prober.NewJob(ctx, item)

		c.lock.Lock()
		if old, ok := c.jobs[item.ID]; ok {
			old.Cancel()
			c.stopWatch(old)
		}
		c.jobs[item.ID] = job
		c.lock.Unlock()

		c.watch(job, q)
		jobs = append(jobs, job)

		c.wg.Add(1)
		go func(job *Job) {
			defer c.wg.Done()

			id := job.ID()
			c.prober.Run(job, func() bool { return q.IsStillQueued(id) })
			if !c.current(job) {
				return
			}
			if !q.IsStillQueued(id) {
				// removed before the job was registered, Forget missed it
				c.drop(job)
				return
			}
			q.NotifyItemProbed(id, job.Result(), job.Err())
		}(job)
	}

	return jobs
}

func (c *Coordinator) watch(job *Job, q Queue) {
	if c.watcher == nil {
		return
	}
	item := job.item
	stop, err := c.watcher.Watch(item.Path, func() {
		c.logger.Info("%s was deleted", item.Path)
		job.Cancel()
		q.NotifyItemRemoved(item.ID)
	})
	if err != nil {
		c.logger.Error("watch %s: %v", item.Path, err)
		return
	}

	c.lock.Lock()
	job.unwatch = stop
	c.lock.Unlock()
}

// current reports whether job was neither replaced nor forgotten.
func (c *Coordinator) current(job *Job) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.jobs[job.ID()] == job
}

// must hold c.lock
func (c *Coordinator) stopWatch(job *Job) {
	if job.unwatch != nil {
		job.unwatch()
		job.unwatch = nil
	}
}

// Cancel cancels the job of id. It reports whether such a job exists.
func (c *Coordinator) Cancel(id string) bool {
	c.lock.RLock()
	job, ok := c.jobs[id]
	c.lock.RUnlock()
	if ok {
		job.Cancel()
	}
	return ok
}

// Forget cancels the job of id, stops watching its file and drops it.
func (c *Coordinator) Forget(id string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	job, ok := c.jobs[id]
	if !ok {
		return
	}
	job.Cancel()
	c.stopWatch(job)
	delete(c.jobs, id)
}

// drop forgets job unless it was replaced in the meantime.
func (c *Coordinator) drop(job *Job) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.jobs[job.ID()] != job {
		return
	}
	job.Cancel()
	c.stopWatch(job)
	delete(c.jobs, job.ID())
}

// CancelAll cancels every known job.
func (c *Coordinator) CancelAll() {
	c.lock.RLock()
	defer c.lock.RUnlock()
	for _, job := range c.jobs {
		job.Cancel()
	}
}

// Wait blocks until every started job delivered its result.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) Job(id string) (*Job, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	job, ok := c.jobs[id]
	return job, ok
}

func (c *Coordinator) Jobs() []*Job {
	c.lock.RLock()
	defer c.lock.RUnlock()
	jobs := make([]*Job, 0, len(c.jobs))
	for _, job := range c.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}
