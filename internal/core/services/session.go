package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
	"github.com/custodia-labs/camdeck/internal/logger"
)

var errSessionReplaced = errors.New("session replaced before it started")

// Ensure PlaybackService implements the interface.
var _ driving.PlaybackService = (*PlaybackService)(nil)

// PlaybackService runs playback sessions. Each session owns an event loop
// goroutine on which its coordinator, sequencers and surface events run.
type PlaybackService struct {
	index     driving.IndexService
	factory   driven.SurfaceFactory
	clock     driven.Clock
	defaults  domain.PlaybackOptions
	telemetry driven.Telemetry
	logger    *logger.Logger

	mu      sync.Mutex
	session *playbackSession
	status  domain.PlaybackStatus
	subs    map[int]func(domain.PlaybackStatus)
	nextSub int
}

type playbackSession struct {
	id     string
	loop   *Loop
	coord  *Coordinator
	cancel context.CancelFunc
}

// NewPlaybackService creates a playback service. defaults fill in options
// left empty by callers.
func NewPlaybackService(
	index driving.IndexService,
	factory driven.SurfaceFactory,
	clock driven.Clock,
	defaults domain.PlaybackOptions,
	telemetry driven.Telemetry,
	log *logger.Logger,
) *PlaybackService {
	if log == nil {
		log = logger.Nop()
	}
	return &PlaybackService{
		index:     index,
		factory:   factory,
		clock:     clock,
		defaults:  defaults,
		telemetry: telemetry,
		logger:    log,
		subs:      make(map[int]func(domain.PlaybackStatus)),
	}
}

// Start begins a session for clipID, replacing any running session.
func (s *PlaybackService) Start(ctx context.Context, clipID string, opts domain.PlaybackOptions) (string, error) {
	clip, ok := s.index.Current().Clip(clipID)
	if !ok {
		return "", fmt.Errorf("clip %s: %w", clipID, domain.ErrNotFound)
	}

	opts = s.withDefaults(opts)
	loopCtx, cancel := context.WithCancel(context.Background())
	sess := &playbackSession{
		id:     uuid.NewString(),
		loop:   NewLoop(),
		cancel: cancel,
	}
	sess.coord = NewCoordinator(CoordinatorConfig{
		Clip:      clip,
		Options:   opts,
		Factory:   s.factory,
		Clock:     s.clock,
		Dispatch:  sess.loop.Dispatch,
		OnChange:  func() { s.publish(sess) },
		Telemetry: s.telemetry,
		Logger:    s.logger,
	})
	go func() {
		_ = sess.loop.Run(loopCtx)
	}()

	s.mu.Lock()
	old := s.session
	s.session = sess
	s.mu.Unlock()
	if old != nil {
		s.shutdown(old)
	}

	s.logger.Section("Playback")
	s.logger.Info("Session %s: %q, %d chunks, cameras %v (primary %s)",
		sess.id, clip.Name, len(clip.Chunks), opts.Cameras, opts.Primary)

	// A later Start may already have replaced sess. Its shutdown runs on
	// this loop after the check below.
	started := false
	err := sess.loop.Call(ctx, func() {
		if s.current(sess) {
			sess.coord.Start()
			started = true
		}
	})
	if err == nil && !started {
		err = errSessionReplaced
	}
	if err != nil {
		s.detach(sess)
		return "", fmt.Errorf("start playback: %w", err)
	}
	return sess.id, nil
}

// Stop ends the running session.
func (s *PlaybackService) Stop() error {
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.mu.Unlock()
	if sess == nil {
		return domain.ErrNoSession
	}
	s.shutdown(sess)
	return nil
}

// detach stops sess if it is still the running session.
func (s *PlaybackService) detach(sess *playbackSession) {
	s.mu.Lock()
	if s.session != sess {
		s.mu.Unlock()
		sess.cancel()
		<-sess.loop.Done()
		return
	}
	s.session = nil
	s.mu.Unlock()
	s.shutdown(sess)
}

func (s *PlaybackService) current(sess *playbackSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session == sess
}

// shutdown stops a session already removed from s.session. The final
// status is only published when no newer session has taken over.
func (s *PlaybackService) shutdown(sess *playbackSession) {
	var final domain.PlaybackStatus
	err := sess.loop.Call(context.Background(), func() {
		sess.coord.Stop()
		final = sess.coord.Status()
	})
	if err != nil {
		s.logger.Warn("Stopping session %s: %v", sess.id, err)
		final = s.Status()
	}
	sess.cancel()
	<-sess.loop.Done()
	s.logger.Info("Session %s stopped", sess.id)

	final.SessionID = sess.id
	final.Active = false
	s.broadcast(final, func() bool { return s.session == nil })
}

// Status returns the last published status.
func (s *PlaybackService) Status() domain.PlaybackStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Subscribe registers fn for every status change.
func (s *PlaybackService) Subscribe(fn func(domain.PlaybackStatus)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *PlaybackService) withDefaults(opts domain.PlaybackOptions) domain.PlaybackOptions {
	if len(opts.Cameras) == 0 {
		opts.Cameras = s.defaults.Cameras
	}
	if opts.Primary == "" {
		opts.Primary = s.defaults.Primary
	}
	if opts.PlaceholderDuration <= 0 {
		opts.PlaceholderDuration = s.defaults.PlaceholderDuration
	}
	return opts.Normalise()
}

// publish runs on the session's loop.
func (s *PlaybackService) publish(sess *playbackSession) {
	st := sess.coord.Status()
	st.SessionID = sess.id
	st.Active = true
	s.broadcast(st, func() bool { return s.session == sess })
}

// broadcast records st and hands it to every subscriber. keep, when set,
// is checked under the lock and drops st when it reports false.
func (s *PlaybackService) broadcast(st domain.PlaybackStatus, keep func() bool) {
	s.mu.Lock()
	if keep != nil && !keep() {
		s.mu.Unlock()
		return
	}
	s.status = st
	subs := make([]func(domain.PlaybackStatus), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}
