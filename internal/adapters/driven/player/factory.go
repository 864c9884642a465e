package player

import (
	"time"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// Ensure Factory implements the interface.
var _ driven.SurfaceFactory = (*Factory)(nil)

// Config selects and configures the surfaces a Factory builds.
type Config struct {
	Kind    domain.PlayerKind
	Command []string

	// Prober times clock surfaces. When nil every segment lasts Fallback.
	Prober   driven.Prober
	Clock    driven.Clock
	Fallback time.Duration
	Logger   *logger.Logger
}

// Factory creates playback surfaces.
type Factory struct {
	cfg Config
}

// NewFactory creates a surface factory.
func NewFactory(cfg Config) *Factory {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Fallback <= 0 {
		cfg.Fallback = domain.DefaultPlaceholderDuration
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Factory{cfg: cfg}
}

// NewSurface creates a surface for camera.
func (f *Factory) NewSurface(camera string, events driven.SurfaceEvents, dispatch func(func())) driven.Surface {
	if f.cfg.Kind == domain.PlayerExec {
		return NewExecSurface(camera, f.cfg.Command, events, dispatch, f.cfg.Logger)
	}
	return NewClockSurface(events, dispatch, f.cfg.Prober, f.cfg.Clock, f.cfg.Fallback)
}
