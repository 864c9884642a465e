package player

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
)

const waitFor = 2 * time.Second

// eventLog records surface events as "kind:path" strings.
type eventLog struct {
	ch chan string
}

func newEventLog() *eventLog {
	return &eventLog{ch: make(chan string, 16)}
}

func (l *eventLog) Opened(path string)          { l.ch <- "opened:" + path }
func (l *eventLog) Ended(path string)           { l.ch <- "ended:" + path }
func (l *eventLog) Failed(path string, _ error) { l.ch <- "failed:" + path }

func (l *eventLog) next(t *testing.T) string {
	t.Helper()
	select {
	case e := <-l.ch:
		return e
	case <-time.After(waitFor):
		t.Fatal("no surface event")
		return ""
	}
}

func (l *eventLog) none(t *testing.T) {
	t.Helper()
	select {
	case e := <-l.ch:
		t.Fatalf("unexpected event %s", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func direct(f func()) { f() }

type stubProber struct {
	d   time.Duration
	err error
}

func (p stubProber) Duration(context.Context, string) (time.Duration, error) {
	return p.d, p.err
}

// stepClock fires timers only when Advance is called.
type stepClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*stepTimer
}

type stepTimer struct {
	clock   *stepClock
	at      time.Time
	f       func()
	stopped bool
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) AfterFunc(d time.Duration, f func()) driven.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &stepTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(c.now) {
			t.stopped = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

func (t *stepTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("mp4"), 0600))
	return path
}

func script(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "player")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0700))
	return path
}
