package player

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// Ensure ExecSurface implements the interface.
var _ driven.Surface = (*ExecSurface)(nil)

// ExecSurface plays each segment by running an external player with the
// segment path appended to command. The player is expected to exit when
// the media ends.
type ExecSurface struct {
	camera   string
	command  []string
	events   driven.SurfaceEvents
	dispatch func(func())
	logger   *logger.Logger

	mu      sync.Mutex
	gen     uint64
	path    string
	opened  bool
	cmd     *exec.Cmd
	visible bool
}

// NewExecSurface creates a surface running command.
func NewExecSurface(
	camera string,
	command []string,
	events driven.SurfaceEvents,
	dispatch func(func()),
	log *logger.Logger,
) *ExecSurface {
	if log == nil {
		log = logger.Nop()
	}
	return &ExecSurface{
		camera:   camera,
		command:  command,
		events:   events,
		dispatch: dispatch,
		logger:   log,
	}
}

// Open checks that path is readable. The player itself starts on Play.
func (s *ExecSurface) Open(path string) {
	s.mu.Lock()
	s.release()
	gen := s.gen
	s.path = path
	s.mu.Unlock()

	go func() {
		f, err := os.Open(path)
		if err == nil {
			_ = f.Close()
		}

		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.opened = err == nil
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

// Play launches the player for the opened media.
func (s *ExecSurface) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened || s.cmd != nil {
		return
	}
	if len(s.command) == 0 {
		s.failLocked(errors.New("no player command configured"))
		return
	}

	args := append(append([]string{}, s.command[1:]...), s.path)
	cmd := exec.Command(s.command[0], args...)
	s.logger.Debug("[%s] %s %v", s.camera, s.command[0], args)
	if err := cmd.Start(); err != nil {
		s.failLocked(fmt.Errorf("start player: %w", err))
		return
	}
	s.cmd = cmd

	gen, path := s.gen, s.path
	go func() {
		err := cmd.Wait()

		s.mu.Lock()
		stale := gen != s.gen
		if !stale {
			s.cmd = nil
		}
		s.mu.Unlock()
		if stale {
			return
		}

		s.dispatch(func() {
			if err != nil {
				s.events.Failed(path, fmt.Errorf("player exited: %w", err))
				return
			}
			s.events.Ended(path)
		})
	}()
}

// failLocked reports err for the current media from a new goroutine.
// Caller must hold mu.
func (s *ExecSurface) failLocked(err error) {
	path := s.path
	go s.dispatch(func() { s.events.Failed(path, err) })
}

// Stop kills a running player and forgets the loaded media.
func (s *ExecSurface) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
}

// release must be called with mu held.
func (s *ExecSurface) release() {
	s.gen++
	if s.cmd != nil && s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Warn("[%s] kill player: %v", s.camera, err)
		}
	}
	s.cmd = nil
	s.path = ""
	s.opened = false
}

// SetVisible records visibility. The external player is only running while
// its segment plays, so hidden standby surfaces show nothing.
func (s *ExecSurface) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
}
