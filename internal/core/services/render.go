package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// Ensure RenderService implements the interface.
var _ driving.RenderService = (*RenderService)(nil)

// DefaultBufferPoll is how often Stream checks for renderer output.
const DefaultBufferPoll = 100 * time.Millisecond

// RenderConfig configures a RenderService.
type RenderConfig struct {
	Composition   domain.Composition
	Overlays      []string
	BufferTimeout time.Duration
	BufferPoll    time.Duration
}

// RenderService composes chunks through a driven.Renderer.
type RenderService struct {
	index     driving.IndexService
	renderer  driven.Renderer
	config    RenderConfig
	telemetry driven.Telemetry
	logger    *logger.Logger
}

// NewRenderService creates a render service.
func NewRenderService(
	index driving.IndexService,
	renderer driven.Renderer,
	config RenderConfig,
	telemetry driven.Telemetry,
	log *logger.Logger,
) *RenderService {
	if log == nil {
		log = logger.Nop()
	}
	if config.BufferPoll <= 0 {
		config.BufferPoll = DefaultBufferPoll
	}
	if config.BufferTimeout <= 0 {
		config.BufferTimeout = 30 * time.Second
	}
	if len(config.Overlays) == 0 {
		config.Overlays = domain.DefaultCameras()
	}
	return &RenderService{
		index:     index,
		renderer:  renderer,
		config:    config,
		telemetry: telemetry,
		logger:    log,
	}
}

// Stream starts a render and waits until output is buffered.
func (s *RenderService) Stream(ctx context.Context, clipID string, chunk int, primary string) (driving.RenderStream, error) {
	job, err := s.job(clipID, chunk, primary)
	if err != nil {
		return nil, err
	}

	proc, err := s.start(ctx, job)
	if err != nil {
		return nil, err
	}
	if err := s.waitForBuffer(ctx, proc); err != nil {
		if stopErr := proc.Stop(); stopErr != nil {
			s.logger.Warn("Stopping renderer: %v", stopErr)
		}
		s.failed()
		return nil, err
	}
	s.logger.Info("Render buffered at %s", proc.Output())
	return proc, nil
}

// Compose renders to out and waits for the renderer to exit.
func (s *RenderService) Compose(ctx context.Context, clipID string, chunk int, primary, out string) error {
	if out == "" {
		return fmt.Errorf("%w: output path required", domain.ErrInvalidInput)
	}
	job, err := s.job(clipID, chunk, primary)
	if err != nil {
		return err
	}
	job.Output = out

	proc, err := s.start(ctx, job)
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := proc.Stop(); stopErr != nil {
			s.logger.Warn("Stopping renderer: %v", stopErr)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-proc.Done():
	}
	if err := proc.Wait(); err != nil {
		s.failed()
		return asRendererError(err)
	}
	return nil
}

func (s *RenderService) job(clipID string, chunk int, primary string) (domain.RenderJob, error) {
	clip, ok := s.index.Current().Clip(clipID)
	if !ok {
		return domain.RenderJob{}, fmt.Errorf("clip %s: %w", clipID, domain.ErrNotFound)
	}
	ch, ok := clip.Chunk(chunk)
	if !ok {
		return domain.RenderJob{}, fmt.Errorf("chunk %d of %d: %w", chunk, len(clip.Chunks), domain.ErrNotFound)
	}
	if primary == "" {
		primary = domain.MandatoryCamera
	}
	return domain.NewRenderJob(ch, primary, s.config.Overlays, s.config.Composition)
}

func (s *RenderService) start(ctx context.Context, job domain.RenderJob) (driven.RenderProcess, error) {
	s.logger.Debug("Rendering %s with %d overlays", job.Primary.Path, len(job.Overlays))
	proc, err := s.renderer.Start(ctx, job)
	if err != nil {
		s.failed()
		return nil, asRendererError(err)
	}
	return proc, nil
}

// waitForBuffer polls until the output file exists and is non-empty.
func (s *RenderService) waitForBuffer(ctx context.Context, proc driven.RenderProcess) error {
	ticker := time.NewTicker(s.config.BufferPoll)
	defer ticker.Stop()
	deadline := time.NewTimer(s.config.BufferTimeout)
	defer deadline.Stop()

	for {
		if buffered(proc.Output()) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-proc.Done():
			if buffered(proc.Output()) {
				return nil
			}
			if err := proc.Wait(); err != nil {
				return asRendererError(err)
			}
			return &domain.RendererError{ExitCode: 0, Err: errors.New("exited without output")}
		case <-deadline.C:
			return &domain.RendererError{
				ExitCode: -1,
				Err:      fmt.Errorf("no output after %s", s.config.BufferTimeout),
			}
		case <-ticker.C:
		}
	}
}

func (s *RenderService) failed() {
	if s.telemetry != nil {
		s.telemetry.RenderFailed()
	}
}

func buffered(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func asRendererError(err error) error {
	if errors.Is(err, domain.ErrRendererFailure) || isCancellation(err) {
		return err
	}
	return &domain.RendererError{ExitCode: -1, Err: err}
}
