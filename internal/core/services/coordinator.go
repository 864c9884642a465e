package services

import (
	"time"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// CoordinatorConfig wires a Coordinator.
type CoordinatorConfig struct {
	Clip      domain.Clip
	Options   domain.PlaybackOptions
	Factory   driven.SurfaceFactory
	Clock     driven.Clock
	Dispatch  func(func())
	OnChange  func()
	Telemetry driven.Telemetry
	Logger    *logger.Logger
}

// Coordinator keeps several camera feeds of one clip on the same chunk.
// It owns the only cursor: the primary feed finishing its segment is the
// one thing that moves every feed forward.
//
// When the current chunk has no playable primary segment, a timer of
// Options.PlaceholderDuration stands in for it.
//
// Like Sequencer, a Coordinator must only be used from the playback loop.
type Coordinator struct {
	clip     domain.Clip
	opts     domain.PlaybackOptions
	clock    driven.Clock
	dispatch func(func())
	onChange func()
	logger   *logger.Logger

	feeds     []*Sequencer
	primary   *Sequencer
	cursor    int
	gen       uint64
	timer     driven.Timer
	exhausted bool
	batching  bool
	dirty     bool
}

// NewCoordinator creates a coordinator with one sequencer per camera in
// cfg.Options. The primary camera's feed comes first.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	c := &Coordinator{
		clip:     cfg.Clip,
		opts:     cfg.Options.Normalise(),
		clock:    cfg.Clock,
		dispatch: cfg.Dispatch,
		onChange: cfg.OnChange,
		logger:   log,
		cursor:   -1,
	}
	for _, cam := range c.opts.Cameras {
		seq := NewSequencer(cam, cfg.Factory, cfg.Dispatch, c, cfg.Telemetry, log)
		c.feeds = append(c.feeds, seq)
	}
	c.primary = c.feeds[0]
	return c
}

// Start positions every feed on the first chunk.
func (c *Coordinator) Start() {
	c.batch(func() {
		c.exhausted = false
		for _, f := range c.feeds {
			f.Load(c.clip.Chunks, false)
		}
		c.pointAll(0)
	})
}

// Advance moves every feed to the next chunk, or exhausts them after the
// last one.
func (c *Coordinator) Advance() {
	if c.exhausted {
		return
	}
	c.batch(func() {
		if c.cursor+1 >= len(c.clip.Chunks) {
			c.cancelTimer()
			c.exhausted = true
			for _, f := range c.feeds {
				f.Exhaust()
			}
			c.logger.Debug("Clip %q exhausted after %d chunks", c.clip.Name, len(c.clip.Chunks))
			return
		}
		c.pointAll(c.cursor + 1)
	})
}

// Stop releases every feed.
func (c *Coordinator) Stop() {
	c.batch(func() {
		c.cancelTimer()
		c.gen++
		for _, f := range c.feeds {
			f.Stop()
		}
	})
}

// Cursor returns the current chunk index.
func (c *Coordinator) Cursor() int {
	return c.cursor
}

// Exhausted reports whether every chunk has been played.
func (c *Coordinator) Exhausted() bool {
	return c.exhausted
}

// Feeds returns the sequencers, primary first.
func (c *Coordinator) Feeds() []*Sequencer {
	return c.feeds
}

// Status returns a snapshot of every feed.
func (c *Coordinator) Status() domain.PlaybackStatus {
	st := domain.PlaybackStatus{
		ClipID:     c.clip.ID,
		ClipName:   c.clip.Name,
		ChunkIndex: c.cursor,
		ChunkCount: len(c.clip.Chunks),
		Exhausted:  c.exhausted,
		Feeds:      make([]domain.FeedStatus, 0, len(c.feeds)),
	}
	if ch, ok := c.clip.Chunk(c.cursor); ok {
		st.ChunkTime = ch.Timestamp
	}
	for _, f := range c.feeds {
		fs := f.Status()
		fs.Primary = f == c.primary
		st.Feeds = append(st.Feeds, fs)
	}
	return st
}

// FeedChanged implements FeedListener.
func (c *Coordinator) FeedChanged(string) {
	c.changed()
}

// FeedEnded implements FeedListener.
func (c *Coordinator) FeedEnded(camera string, index int) {
	if camera != c.primary.Camera() || index != c.cursor {
		return
	}
	c.Advance()
}

// FeedFailed implements FeedListener.
func (c *Coordinator) FeedFailed(camera string, index int, err error) {
	if camera != c.primary.Camera() || index != c.cursor {
		return
	}
	c.logger.Warn("Primary feed failed on chunk %d, holding for %s: %v", index, c.opts.PlaceholderDuration, err)
	c.armPlaceholder()
}

func (c *Coordinator) pointAll(i int) {
	c.cancelTimer()
	c.gen++
	c.cursor = i
	for _, f := range c.feeds {
		f.Point(i)
	}
	if ch, ok := c.clip.Chunk(i); ok && !ch.Has(c.primary.Camera()) {
		c.logger.Debug("Chunk %d has no %s segment, holding for %s", i, c.primary.Camera(), c.opts.PlaceholderDuration)
		c.armPlaceholder()
	}
}

func (c *Coordinator) armPlaceholder() {
	c.cancelTimer()
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.opts.PlaceholderDuration, func() {
		c.dispatch(func() {
			if gen != c.gen {
				return
			}
			c.Advance()
		})
	})
}

func (c *Coordinator) cancelTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// batch runs f and reports at most one change for everything it did.
func (c *Coordinator) batch(f func()) {
	if c.batching {
		f()
		return
	}
	c.batching = true
	c.dirty = false
	f()
	c.batching = false
	if c.dirty {
		c.changed()
	}
}

func (c *Coordinator) changed() {
	if c.batching {
		c.dirty = true
		return
	}
	if c.onChange != nil {
		c.onChange()
	}
}

// PlaceholderDuration returns the stand-in duration for missing primaries.
func (c *Coordinator) PlaceholderDuration() time.Duration {
	return c.opts.PlaceholderDuration
}
