// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具
//
// Package process wraps exec.Cmd for a single FFmpeg invocation whose output
// is streamed line by line into a Parser.

package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

const (
	sampleInterval = 250 * time.Millisecond
	lineBuffer     = 64
	maxLineSize    = 1024 * 1024
)

// Process is one run of an external binary.
type Process interface {
	// Run starts the binary, feeds every output line to the parser and
	// returns after the process exited. A Process can only be run once.
	Run(ctx context.Context) (Outcome, error)
	// Kill terminates the process. It is a no-op if the process already
	// exited and can be called any number of times.
	Kill() error
	Status() Status
}

// Config for a process
type Config struct {
	Binary        string
	Args          []string
	StaleTimeout  time.Duration
	Parser        Parser
	Monitor       Monitor
	OnStateChange func(from, to string)
	Logger        Logger
}

// Status of a process
type Status struct {
	State    string
	Duration time.Duration
	Time     time.Time
	CPU      float64
	Memory   uint64
}

// Outcome describes how a finished run ended.
type Outcome struct {
	ExitCode   int
	Killed     bool
	Stale      bool
	Lines      uint64
	Facts      uint64
	Runtime    time.Duration
	PeakMemory uint64
	PeakCPU    float64
}

// Logger interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

type stateType string

const (
	stateFinished stateType = "finished"
	stateStarting stateType = "starting"
	stateRunning  stateType = "running"
	stateFailed   stateType = "failed"
	stateKilled   stateType = "killed"
)

func (s stateType) String() string { return string(s) }

func (s stateType) IsRunning() bool {
	return s == stateStarting || s == stateRunning
}

type process struct {
	binary string
	args   []string
	parser Parser

	cmd     *exec.Cmd
	cmdLock sync.Mutex
	started bool
	exited  bool
	killed  atomic.Bool
	stale   atomic.Bool

	state struct {
		state stateType
		time  time.Time
		lock  sync.Mutex
	}
	staleTimeout time.Duration
	monitor      Monitor
	peak         struct {
		cpu    float64
		memory uint64
		lock   sync.Mutex
	}
	onStateChange func(from, to string)
	logger        Logger
}

// New creates a new process
func New(config Config) (Process, error) {
	p := &process{
		binary:        config.Binary,
		args:          config.Args,
		parser:        config.Parser,
		monitor:       config.Monitor,
		logger:        config.Logger,
		staleTimeout:  config.StaleTimeout,
		onStateChange: config.OnStateChange,
	}

	if len(p.binary) == 0 {
		return nil, fmt.Errorf("no valid binary given")
	}
	if p.parser == nil {
		p.parser = &nullParser{}
	}
	if p.monitor == nil {
		p.monitor = NewNullMonitor()
	}
	if p.logger == nil {
		p.logger = &nopLogger{}
	}

	p.state.state = stateFinished
	p.state.time = time.Now()
	return p, nil
}

func (p *process) setState(state stateType) {
	p.state.lock.Lock()
	prev := p.state.state
	p.state.state = state
	p.state.time = time.Now()
	p.state.lock.Unlock()

	if p.onStateChange != nil && prev != state {
		p.onStateChange(prev.String(), state.String())
	}
}

func (p *process) Status() Status {
	cpu, memory := p.monitor.Current()

	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	return Status{
		State:    p.state.state.String(),
		Duration: time.Since(p.state.time),
		Time:     p.state.time,
		CPU:      cpu,
		Memory:   memory,
	}
}

func (p *process) Kill() error {
	p.cmdLock.Lock()
	defer p.cmdLock.Unlock()

	if p.exited || p.killed.Load() {
		return nil
	}
	p.killed.Store(true)
	if p.cmd == nil || p.cmd.Process == nil {
		// not started yet, Run will refuse to launch
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *process) Run(ctx context.Context) (Outcome, error) {
	p.cmdLock.Lock()
	if p.started {
		p.cmdLock.Unlock()
		return Outcome{}, ErrAlreadyStarted
	}
	p.started = true
	p.cmdLock.Unlock()

	if ctx.Err() != nil || p.killed.Load() {
		p.finish()
		return Outcome{ExitCode: -1, Killed: true}, ErrKilled
	}

	p.setState(stateStarting)

	cmd := exec.Command(p.binary, p.args...)
	cmd.Env = []string{}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return p.launchFailed(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return p.launchFailed(err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return p.launchFailed(err)
	}

	p.cmdLock.Lock()
	p.cmd = cmd
	if p.killed.Load() {
		cmd.Process.Kill()
	}
	p.cmdLock.Unlock()

	p.setState(stateRunning)
	p.logger.Debug("started %s (pid %d) %v", p.binary, cmd.Process.Pid, p.args)

	if err := p.monitor.Start(cmd.Process.Pid); err != nil {
		p.logger.Debug("monitor pid %d: %v", cmd.Process.Pid, err)
	}

	exited := make(chan struct{})
	defer close(exited)
	go p.sampler(exited)
	go func() {
		select {
		case <-ctx.Done():
			p.Kill()
		case <-exited:
		}
	}()

	var staleTimer *time.Timer
	if p.staleTimeout > 0 {
		staleTimer = time.AfterFunc(p.staleTimeout, func() {
			p.logger.Info("no output from pid %d for %s, killing", cmd.Process.Pid, p.staleTimeout)
			p.stale.Store(true)
			p.Kill()
		})
	}

	lines := make(chan string, lineBuffer)
	var readers sync.WaitGroup
	readers.Add(2)
	go p.reader(stdout, lines, &readers)
	go p.reader(stderr, lines, &readers)
	go func() {
		readers.Wait()
		close(lines)
	}()

	outcome := Outcome{}
	for line := range lines {
		if p.killed.Load() {
			// drain without parsing, facts after a kill are not trusted
			continue
		}
		if staleTimer != nil {
			staleTimer.Reset(p.staleTimeout)
		}
		outcome.Lines++
		outcome.Facts += p.parser.Parse(line)
	}

	waitErr := cmd.Wait()
	if staleTimer != nil {
		staleTimer.Stop()
	}
	p.finish()

	outcome.Runtime = time.Since(start)
	outcome.Killed = p.killed.Load()
	outcome.Stale = p.stale.Load()
	p.peak.lock.Lock()
	outcome.PeakCPU = p.peak.cpu
	outcome.PeakMemory = p.peak.memory
	p.peak.lock.Unlock()

	return p.exit(outcome, waitErr)
}

func (p *process) exit(outcome Outcome, waitErr error) (Outcome, error) {
	if outcome.Killed {
		outcome.ExitCode = -1
		p.setState(stateKilled)
		return outcome, ErrKilled
	}
	if waitErr == nil {
		p.setState(stateFinished)
		return outcome, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		outcome.ExitCode = exitErr.ExitCode()
		if outcome.ExitCode < 0 {
			// signalled by someone other than us
			outcome.Killed = true
			p.setState(stateKilled)
			return outcome, ErrKilled
		}
		p.setState(stateFailed)
		return outcome, &ExitError{Code: outcome.ExitCode}
	}

	outcome.ExitCode = -1
	p.setState(stateFailed)
	return outcome, waitErr
}

func (p *process) launchFailed(err error) (Outcome, error) {
	p.finish()
	p.setState(stateFailed)
	p.logger.Error("launch %s: %v", p.binary, err)
	return Outcome{ExitCode: -1}, fmt.Errorf("%w: %s: %v", ErrLaunchFailed, p.binary, err)
}

func (p *process) finish() {
	p.cmdLock.Lock()
	p.exited = true
	p.cmdLock.Unlock()
	p.monitor.Stop()
}

func (p *process) sampler(exited <-chan struct{}) {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-exited:
			return
		case <-ticker.C:
			cpu, memory := p.monitor.Current()
			p.peak.lock.Lock()
			if cpu > p.peak.cpu {
				p.peak.cpu = cpu
			}
			if memory > p.peak.memory {
				p.peak.memory = memory
			}
			p.peak.lock.Unlock()
		}
	}
}

func (p *process) reader(r io.Reader, lines chan<- string, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanLine)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		p.logger.Debug("read output: %v", err)
		// keep the pipe drained so the child never blocks on a full buffer
		io.Copy(io.Discard, r)
	}
}

func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

type nopLogger struct{}

func (l *nopLogger) Info(format string, args ...interface{})  {}
func (l *nopLogger) Error(format string, args ...interface{}) {}
func (l *nopLogger) Debug(format string, args ...interface{}) {}
