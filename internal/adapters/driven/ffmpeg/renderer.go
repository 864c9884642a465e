package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// Ensure Renderer implements the interface.
var _ driven.Renderer = (*Renderer)(nil)

// waitDelay bounds how long Wait keeps copying stderr after the process
// has exited.
const waitDelay = 2 * time.Second

// Renderer starts ffmpeg processes that compose render jobs.
type Renderer struct {
	path    string
	tempDir string
	logger  *logger.Logger
}

// NewRenderer creates a renderer running the ffmpeg binary at path.
// Temporary outputs are written to tempDir, or the system temp directory
// when tempDir is empty.
func NewRenderer(path, tempDir string, log *logger.Logger) *Renderer {
	if path == "" {
		path = "ffmpeg"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Renderer{path: path, tempDir: tempDir, logger: log}
}

// Start launches ffmpeg for job. The returned process owns the output file
// when job.Output is empty.
func (r *Renderer) Start(ctx context.Context, job domain.RenderJob) (driven.RenderProcess, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if job.Primary.Path == "" {
		return nil, fmt.Errorf("%w: render job has no primary input", domain.ErrInvalidInput)
	}
	job.Composition = withDefaults(job.Composition)

	output, temp := job.Output, false
	if output == "" {
		output = filepath.Join(r.tempDir, "camdeck-render-"+uuid.NewString()+".ts")
		temp = true
	}

	args := buildArgs(job, output)
	cmd := exec.Command(r.path, args...)
	stderr := newTail(stderrLines)
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	r.logger.Debug("%s %v", r.path, args)
	if err := cmd.Start(); err != nil {
		return nil, &domain.RendererError{ExitCode: -1, Err: fmt.Errorf("start %s: %w", r.path, err)}
	}

	p := &process{
		cmd:    cmd,
		output: output,
		temp:   temp,
		stderr: stderr,
		done:   make(chan struct{}),
		logger: r.logger,
	}
	go p.wait()
	return p, nil
}

// withDefaults fills unset encoder fields from domain.DefaultComposition.
func withDefaults(comp domain.Composition) domain.Composition {
	def := domain.DefaultComposition()
	if comp.TileWidth <= 0 || comp.TileHeight <= 0 {
		comp.TileWidth, comp.TileHeight = def.TileWidth, def.TileHeight
	}
	if comp.Padding < 0 {
		comp.Padding = def.Padding
	}
	if comp.Codec == "" {
		comp.Codec = def.Codec
	}
	if comp.Preset == "" {
		comp.Preset = def.Preset
	}
	if comp.Format == "" {
		comp.Format = def.Format
	}
	return comp
}

// Available reports whether the binary at path can be found.
func Available(path string) error {
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("%s not found: %w", path, err)
	}
	return nil
}
