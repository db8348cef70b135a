// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package process

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

func script(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	path := filepath.Join(t.TempDir(), "fake.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

type collector struct {
	mu    sync.Mutex
	lines []string
}

func (c *collector) Parse(line string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	return 1
}

func (c *collector) sorted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]string(nil), c.lines...)
	sort.Strings(out)
	return out
}

func run(t *testing.T, cfg Config) (Outcome, error) {
	t.Helper()
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return p.Run(ctx)
}

func TestNew_RequiresBinary(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRun_StreamsBothChannels(t *testing.T) {
	bin := script(t, `echo out-1
echo err-1 >&2
echo out-2`)
	c := &collector{}

	out, err := run(t, Config{Binary: bin, Parser: c})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.ExitCode != 0 || out.Killed {
		t.Errorf("outcome = %+v", out)
	}
	if out.Lines != 3 || out.Facts != 3 {
		t.Errorf("Lines=%d Facts=%d, want 3/3", out.Lines, out.Facts)
	}
	got := strings.Join(c.sorted(), ",")
	if got != "err-1,out-1,out-2" {
		t.Errorf("lines = %s", got)
	}
}

func TestRun_PassesArguments(t *testing.T) {
	bin := script(t, `for a in "$@"; do echo "arg:$a"; done`)
	c := &collector{}

	if _, err := run(t, Config{Binary: bin, Args: []string{"-i", "/media/my clip.mp4"}, Parser: c}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := strings.Join(c.sorted(), "|")
	if got != "arg:-i|arg:/media/my clip.mp4" {
		t.Errorf("lines = %s", got)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	bin := script(t, `echo "At least one output file must be specified" >&2
exit 1`)

	out, err := run(t, Config{Binary: bin})
	if !errors.Is(err, ErrExitedNonZero) {
		t.Fatalf("err = %v, want ErrExitedNonZero", err)
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Errorf("ExitError = %v", exitErr)
	}
	if out.ExitCode != 1 || out.Lines != 1 {
		t.Errorf("outcome = %+v", out)
	}
}

func TestRun_LaunchFailed(t *testing.T) {
	var states []string
	out, err := run(t, Config{
		Binary:        filepath.Join(t.TempDir(), "missing-ffmpeg"),
		OnStateChange: func(from, to string) { states = append(states, to) },
	})
	if !errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("err = %v, want ErrLaunchFailed", err)
	}
	if out.ExitCode != -1 {
		t.Errorf("ExitCode = %d", out.ExitCode)
	}
	if strings.Join(states, ",") != "starting,failed" {
		t.Errorf("states = %v", states)
	}
}

func TestRun_ContextCancelKills(t *testing.T) {
	bin := script(t, `echo ready
while :; do :; done`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var after int
	parser := ParserFunc(func(line string) {
		if line == "ready" {
			cancel()
			return
		}
		after++
	})

	p, err := New(Config{Binary: bin, Parser: parser})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var out Outcome
	go func() {
		out, err = p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		p.Kill()
		t.Fatal("Run did not return after cancellation")
	}

	if !errors.Is(err, ErrKilled) {
		t.Errorf("err = %v, want ErrKilled", err)
	}
	if !out.Killed || out.ExitCode != -1 {
		t.Errorf("outcome = %+v", out)
	}
	if after != 0 {
		t.Errorf("%d lines delivered after kill", after)
	}
	if p.Status().State != "killed" {
		t.Errorf("state = %s", p.Status().State)
	}
}

func TestKill_Idempotent(t *testing.T) {
	bin := script(t, `echo hi`)

	p, err := New(Config{Binary: bin})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := p.Kill(); err != nil {
			t.Errorf("Kill after exit #%d: %v", i, err)
		}
	}
	if p.Status().State != "finished" {
		t.Errorf("state = %s", p.Status().State)
	}
}

func TestKill_BeforeRunPreventsLaunch(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "launched")
	bin := script(t, `: > "`+marker+`"`)

	p, err := New(Config{Binary: bin})
	if err != nil {
		t.Fatal(err)
	}
	p.Kill()
	p.Kill()

	if _, err := p.Run(context.Background()); !errors.Is(err, ErrKilled) {
		t.Fatalf("err = %v, want ErrKilled", err)
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("process was launched after Kill")
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	bin := script(t, `exit 0`)
	p, err := New(Config{Binary: bin})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := p.Run(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Run err = %v", err)
	}
}

func TestRun_StaleTimeout(t *testing.T) {
	bin := script(t, `echo start
while :; do :; done`)

	out, err := run(t, Config{Binary: bin, StaleTimeout: 200 * time.Millisecond})
	if !errors.Is(err, ErrKilled) {
		t.Fatalf("err = %v, want ErrKilled", err)
	}
	if !out.Stale || !out.Killed {
		t.Errorf("outcome = %+v", out)
	}
}

func TestRun_StateTransitions(t *testing.T) {
	bin := script(t, `echo ok`)
	var mu sync.Mutex
	var states []string
	_, err := run(t, Config{Binary: bin, OnStateChange: func(from, to string) {
		mu.Lock()
		states = append(states, from+">"+to)
		mu.Unlock()
	}})
	if err != nil {
		t.Fatal(err)
	}
	want := "finished>starting,starting>running,running>finished"
	if got := strings.Join(states, ","); got != want {
		t.Errorf("transitions = %s, want %s", got, want)
	}
}

func TestScanLine(t *testing.T) {
	input := "frame=  1 fps=0.0\rframe=  2 fps=0.0\r\n\nDuration: 00:00:01.00\nlast"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanLine)

	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	want := []string{"frame=  1 fps=0.0", "frame=  2 fps=0.0", "Duration: 00:00:01.00", "last"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}
}
