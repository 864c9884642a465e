package player

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
)

// Ensure ClockSurface implements the interface.
var _ driven.Surface = (*ClockSurface)(nil)

// ClockSurface is a headless surface timed from probed media durations.
type ClockSurface struct {
	events   driven.SurfaceEvents
	dispatch func(func())
	prober   driven.Prober
	clock    driven.Clock
	fallback time.Duration

	mu       sync.Mutex
	gen      uint64
	path     string
	duration time.Duration
	opened   bool
	cancel   context.CancelFunc
	timer    driven.Timer
	visible  bool
}

// NewClockSurface creates a clock surface. prober may be nil, in which case
// every segment lasts fallback.
func NewClockSurface(
	events driven.SurfaceEvents,
	dispatch func(func()),
	prober driven.Prober,
	clock driven.Clock,
	fallback time.Duration,
) *ClockSurface {
	return &ClockSurface{
		events:   events,
		dispatch: dispatch,
		prober:   prober,
		clock:    clock,
		fallback: fallback,
	}
}

// Open probes path in the background.
func (s *ClockSurface) Open(path string) {
	s.mu.Lock()
	s.release()
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.path = path
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		d, err := s.probe(ctx, path)

		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		if err == nil {
			s.duration = d
			s.opened = true
		}
		s.mu.Unlock()

		s.dispatch(func() {
			if err != nil {
				s.events.Failed(path, err)
				return
			}
			s.events.Opened(path)
		})
	}()
}

func (s *ClockSurface) probe(ctx context.Context, path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	if s.prober == nil {
		return s.fallback, nil
	}
	d, err := s.prober.Duration(ctx, path)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s has no playable duration", path)
	}
	return d, nil
}

// Play starts the timer for the opened media. It does nothing before
// Opened was reported.
func (s *ClockSurface) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	gen, path := s.gen, s.path
	s.timer = s.clock.AfterFunc(s.duration, func() {
		s.mu.Lock()
		stale := gen != s.gen
		s.mu.Unlock()
		if stale {
			return
		}
		s.dispatch(func() { s.events.Ended(path) })
	})
}

// Stop cancels probing and playback.
func (s *ClockSurface) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
}

// release forgets the loaded media. Caller must hold mu.
func (s *ClockSurface) release() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.path = ""
	s.duration = 0
	s.opened = false
}

// SetVisible records visibility. Nothing is drawn.
func (s *ClockSurface) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
}

// Visible reports the last visibility set.
func (s *ClockSurface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}
