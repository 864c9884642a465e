package player

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockSurface_OpenPlayEnd(t *testing.T) {
	events := newEventLog()
	clock := &stepClock{}
	s := NewClockSurface(events, direct, stubProber{d: 40 * time.Second}, clock, time.Minute)
	path := touch(t, "front.mp4")

	s.Open(path)
	assert.Equal(t, "opened:"+path, events.next(t))

	s.Play()
	clock.Advance(39 * time.Second)
	events.none(t)
	clock.Advance(time.Second)
	assert.Equal(t, "ended:"+path, events.next(t))
}

func TestClockSurface_FallbackWithoutProber(t *testing.T) {
	events := newEventLog()
	clock := &stepClock{}
	s := NewClockSurface(events, direct, nil, clock, time.Minute)
	path := touch(t, "front.mp4")

	s.Open(path)
	events.next(t)
	s.Play()
	clock.Advance(time.Minute)

	assert.Equal(t, "ended:"+path, events.next(t))
}

func TestClockSurface_MissingFileFails(t *testing.T) {
	events := newEventLog()
	s := NewClockSurface(events, direct, nil, &stepClock{}, time.Minute)
	path := filepath.Join(t.TempDir(), "gone.mp4")

	s.Open(path)

	assert.Equal(t, "failed:"+path, events.next(t))
}

func TestClockSurface_ProbeErrorFails(t *testing.T) {
	events := newEventLog()
	s := NewClockSurface(events, direct, stubProber{err: errors.New("moov atom not found")}, &stepClock{}, time.Minute)
	path := touch(t, "front.mp4")

	s.Open(path)

	assert.Equal(t, "failed:"+path, events.next(t))
}

func TestClockSurface_PlayBeforeOpenedIsIgnored(t *testing.T) {
	events := newEventLog()
	clock := &stepClock{}
	s := NewClockSurface(events, direct, nil, clock, time.Minute)

	s.Play()
	clock.Advance(time.Hour)

	events.none(t)
}

func TestClockSurface_StopSilencesPlayback(t *testing.T) {
	events := newEventLog()
	clock := &stepClock{}
	s := NewClockSurface(events, direct, nil, clock, time.Minute)
	path := touch(t, "front.mp4")
	s.Open(path)
	events.next(t)
	s.Play()

	s.Stop()
	clock.Advance(time.Hour)

	events.none(t)
}

func TestClockSurface_Visibility(t *testing.T) {
	s := NewClockSurface(newEventLog(), direct, nil, &stepClock{}, time.Minute)

	s.SetVisible(true)
	assert.True(t, s.Visible())
	s.SetVisible(false)
	assert.False(t, s.Visible())
}
