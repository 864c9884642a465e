package ffmpeg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"sync"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// Ensure process implements the interface.
var _ driven.RenderProcess = (*process)(nil)

// stderrLines is how much ffmpeg output is kept for error reports.
const stderrLines = 20

// process is a running ffmpeg render.
type process struct {
	cmd    *exec.Cmd
	output string
	temp   bool
	stderr *tail
	logger *logger.Logger

	done chan struct{}
	err  error // set before done is closed

	stopOnce sync.Once
	stopErr  error
}

func (p *process) wait() {
	p.err = p.exitError(p.cmd.Wait())
	close(p.done)
}

func (p *process) exitError(err error) error {
	if err == nil {
		return nil
	}
	rerr := &domain.RendererError{ExitCode: -1, Stderr: p.stderr.String(), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		rerr.ExitCode = exitErr.ExitCode()
	}
	return rerr
}

// Output returns the file being written.
func (p *process) Output() string {
	return p.output
}

// Done is closed when ffmpeg exits.
func (p *process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until ffmpeg exits.
func (p *process) Wait() error {
	<-p.done
	return p.err
}

// Stop kills ffmpeg if it is still running, reaps it and removes a
// temporary output.
func (p *process) Stop() error {
	p.stopOnce.Do(func() {
		select {
		case <-p.done:
		default:
			p.logger.Debug("Killing ffmpeg (pid %d)", p.cmd.Process.Pid)
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				p.stopErr = fmt.Errorf("kill ffmpeg: %w", err)
			}
		}
		<-p.done

		if p.temp {
			if err := os.Remove(p.output); err != nil && !errors.Is(err, fs.ErrNotExist) && p.stopErr == nil {
				p.stopErr = fmt.Errorf("remove render output: %w", err)
			}
		}
	})
	return p.stopErr
}
