package services

import (
	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// FeedListener is told about a sequencer's progress. Calls happen on the
// playback loop.
type FeedListener interface {
	// FeedChanged reports any change in the feed's status.
	FeedChanged(camera string)

	// FeedEnded reports that the segment for chunk index finished playing.
	FeedEnded(camera string, index int)

	// FeedFailed reports that the segment for chunk index could not play.
	FeedFailed(camera string, index int, err error)
}

// slot is one of a sequencer's two surfaces.
type slot struct {
	surface driven.Surface
	path    string
	index   int
	ready   bool
}

func (s *slot) open(path string, index int) {
	s.path = path
	s.index = index
	s.ready = false
	s.surface.SetVisible(false)
	s.surface.Open(path)
}

func (s *slot) release() {
	if s.path != "" {
		s.surface.Stop()
	}
	s.path = ""
	s.index = -1
	s.ready = false
	s.surface.SetVisible(false)
}

// Sequencer plays one camera of a clip, chunk after chunk, through two
// surfaces. While the active slot plays chunk i the standby slot already
// holds chunk i+1, so moving on is a swap rather than a load.
//
// A sequencer is not safe for concurrent use; every method and every
// surface event must run on the playback loop.
type Sequencer struct {
	camera   string
	chunks   []domain.Chunk
	index    int
	state    domain.FeedState
	err      error
	auto     bool
	slots    [2]*slot
	active   int
	listener FeedListener

	telemetry driven.Telemetry
	logger    *logger.Logger
}

// NewSequencer creates a sequencer for camera with two surfaces from
// factory. Surface events are delivered through dispatch.
func NewSequencer(
	camera string,
	factory driven.SurfaceFactory,
	dispatch func(func()),
	listener FeedListener,
	telemetry driven.Telemetry,
	log *logger.Logger,
) *Sequencer {
	if log == nil {
		log = logger.Nop()
	}
	s := &Sequencer{
		camera:    camera,
		index:     -1,
		state:     domain.FeedIdle,
		listener:  listener,
		telemetry: telemetry,
		logger:    log,
	}
	for i := range s.slots {
		events := &slotEvents{seq: s, slot: i}
		s.slots[i] = &slot{
			surface: factory.NewSurface(camera, events, dispatch),
			index:   -1,
		}
	}
	return s
}

// Camera returns the camera this sequencer plays.
func (s *Sequencer) Camera() string {
	return s.camera
}

// State returns the feed state.
func (s *Sequencer) State() domain.FeedState {
	return s.state
}

// Index returns the chunk the feed is positioned on, or -1.
func (s *Sequencer) Index() int {
	return s.index
}

// Start plays chunks from the first one and advances on its own whenever
// a segment ends or fails.
func (s *Sequencer) Start(chunks []domain.Chunk) {
	s.Load(chunks, true)
	s.Point(0)
}

// Load resets the feed to chunks without playing anything. With auto set
// the feed advances itself; otherwise it waits for Point.
func (s *Sequencer) Load(chunks []domain.Chunk, auto bool) {
	s.releaseAll()
	s.chunks = chunks
	s.auto = auto
	s.index = -1
	s.err = nil
	s.setState(domain.FeedIdle)
}

// Point moves the feed to chunk i. Past the last chunk the feed is
// exhausted. A self-advancing feed skips chunks its camera is absent from.
func (s *Sequencer) Point(i int) {
	if s.chunks == nil {
		return
	}
	if i < 0 {
		i = 0
	}
	if s.auto {
		i = s.nextWith(i)
	}
	if i >= len(s.chunks) {
		s.Exhaust()
		return
	}

	active := s.slots[s.active]
	standby := s.slots[1-s.active]
	seg, ok := s.chunks[i].Segment(s.camera)

	if ok && i == s.index && active.path == seg.Path {
		return
	}
	s.index = i
	s.err = nil

	if !ok {
		active.release()
		s.setState(domain.FeedHolding)
		s.preloadNext()
		return
	}

	if standby.path == seg.Path && standby.index == i {
		active.release()
		s.active = 1 - s.active
		if standby.ready {
			s.beginPlaying(true)
			return
		}
		s.setState(domain.FeedLoading)
		return
	}

	s.releaseAll()
	s.slots[s.active].open(seg.Path, i)
	s.setState(domain.FeedLoading)
}

// Exhaust releases both surfaces and marks the feed finished.
func (s *Sequencer) Exhaust() {
	s.releaseAll()
	s.setState(domain.FeedExhausted)
}

// Stop releases both surfaces and returns to idle.
func (s *Sequencer) Stop() {
	s.releaseAll()
	s.chunks = nil
	s.index = -1
	s.setState(domain.FeedIdle)
}

// Status returns the feed's current status.
func (s *Sequencer) Status() domain.FeedStatus {
	st := domain.FeedStatus{
		Camera:     s.camera,
		State:      s.state,
		ChunkIndex: s.index,
		Path:       s.slots[s.active].path,
		Err:        s.err,
	}
	if standby := s.slots[1-s.active]; standby.ready {
		st.Preloaded = standby.path
	}
	return st
}

func (s *Sequencer) beginPlaying(preloaded bool) {
	active := s.slots[s.active]
	active.surface.SetVisible(true)
	s.slots[1-s.active].surface.SetVisible(false)
	active.surface.Play()
	if s.telemetry != nil {
		s.telemetry.SegmentAdvanced(s.camera, preloaded)
	}
	s.logger.Debug("%s: playing chunk %d (preloaded=%t)", s.camera, s.index, preloaded)
	s.setState(domain.FeedPlaying)
	s.preloadNext()
}

// nextWith returns the first chunk from i on that holds the feed's camera,
// or len(chunks).
func (s *Sequencer) nextWith(i int) int {
	for ; i < len(s.chunks); i++ {
		if s.chunks[i].Has(s.camera) {
			return i
		}
	}
	return i
}

// preloadNext opens the next playable segment in the standby slot.
func (s *Sequencer) preloadNext() {
	next := s.index + 1
	if s.auto {
		next = s.nextWith(next)
	}
	if next >= len(s.chunks) {
		return
	}
	seg, ok := s.chunks[next].Segment(s.camera)
	if !ok {
		return
	}
	standby := s.slots[1-s.active]
	if standby.path == seg.Path {
		return
	}
	standby.release()
	standby.open(seg.Path, next)
}

func (s *Sequencer) releaseAll() {
	for _, sl := range s.slots {
		sl.release()
	}
}

func (s *Sequencer) setState(state domain.FeedState) {
	s.state = state
	if s.listener != nil {
		s.listener.FeedChanged(s.camera)
	}
}

func (s *Sequencer) onOpened(i int, path string) {
	sl := s.slots[i]
	if sl.path != path || sl.ready {
		return
	}
	sl.ready = true
	if i == s.active && s.state == domain.FeedLoading {
		s.beginPlaying(false)
		return
	}
	if s.listener != nil {
		s.listener.FeedChanged(s.camera)
	}
}

func (s *Sequencer) onEnded(i int, path string) {
	sl := s.slots[i]
	if i != s.active || sl.path != path || s.state != domain.FeedPlaying {
		return
	}
	if s.auto {
		s.Point(s.index + 1)
		return
	}
	s.setState(domain.FeedHolding)
	if s.listener != nil {
		s.listener.FeedEnded(s.camera, s.index)
	}
}

func (s *Sequencer) onFailed(i int, path string, cause error) {
	sl := s.slots[i]
	if sl.path != path {
		return
	}
	if i != s.active {
		s.logger.Debug("%s: preload of %s failed: %v", s.camera, path, cause)
		sl.release()
		return
	}

	err := &domain.PlaybackError{Camera: s.camera, Path: path, Err: cause}
	s.logger.Warn("%v", err)
	if s.telemetry != nil {
		s.telemetry.PlaybackFailed(s.camera)
	}
	sl.release()

	if s.auto {
		s.Point(s.index + 1)
		s.err = err
		if s.listener != nil {
			s.listener.FeedChanged(s.camera)
		}
		return
	}
	s.err = err
	s.setState(domain.FeedHolding)
	if s.listener != nil {
		s.listener.FeedFailed(s.camera, s.index, err)
	}
}

// slotEvents routes one slot's surface events back to its sequencer.
type slotEvents struct {
	seq  *Sequencer
	slot int
}

func (e *slotEvents) Opened(path string)            { e.seq.onOpened(e.slot, path) }
func (e *slotEvents) Ended(path string)             { e.seq.onEnded(e.slot, path) }
func (e *slotEvents) Failed(path string, err error) { e.seq.onFailed(e.slot, path, err) }
