package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

func newTestRenderService(t *testing.T, renderer *fakeRenderer, timeout time.Duration) (*RenderService, *fakeTelemetry) {
	t.Helper()
	clip := makeClip("c",
		[]string{"front", "back", "left_repeater", "right_repeater"},
		[]string{"front", "back"},
	)
	index := &staticIndex{idx: domain.NewStorageIndex([]domain.Clip{clip}, nil, time.Now())}
	tel := &fakeTelemetry{}
	svc := NewRenderService(index, renderer, RenderConfig{
		Composition:   domain.DefaultComposition(),
		BufferTimeout: timeout,
		BufferPoll:    5 * time.Millisecond,
	}, tel, nil)
	return svc, tel
}

// writeAfter writes output once delay has passed.
func writeAfter(delay time.Duration) func(p *fakeRenderProcess) {
	return func(p *fakeRenderProcess) {
		time.Sleep(delay)
		_ = os.WriteFile(p.output, []byte("mpegts"), 0o600)
	}
}

func TestRenderService_Stream_WaitsForBuffer(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir(), script: writeAfter(20 * time.Millisecond)}
	svc, tel := newTestRenderService(t, renderer, time.Second)

	stream, err := svc.Stream(context.Background(), "c", 0, "")

	require.NoError(t, err)
	info, err := os.Stat(stream.Output())
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Zero(t, renderer.lastProc().Stops())
	assert.Zero(t, tel.renderFails)

	require.NoError(t, stream.Stop())
	_, err = os.Stat(stream.Output())
	assert.True(t, os.IsNotExist(err))
}

func TestRenderService_Stream_BuildsJob(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir(), script: writeAfter(0)}
	svc, _ := newTestRenderService(t, renderer, time.Second)

	stream, err := svc.Stream(context.Background(), "c", 1, "back")
	require.NoError(t, err)
	defer stream.Stop() //nolint:errcheck

	job := renderer.lastJob()
	assert.Equal(t, domain.RenderInput{Camera: "back", Path: segPath("c", 1, "back")}, job.Primary)
	require.Len(t, job.Overlays, 3)
	assert.Equal(t, "front", job.Overlays[0].Camera)
	assert.Equal(t, segPath("c", 1, "front"), job.Overlays[0].Path)
	assert.True(t, job.Overlays[1].Placeholder(), "left repeater missing from chunk 1")
	assert.True(t, job.Overlays[2].Placeholder())
	assert.Empty(t, job.Output)
	assert.Equal(t, domain.DefaultComposition(), job.Composition)
}

func TestRenderService_Stream_Timeout(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir()}
	svc, tel := newTestRenderService(t, renderer, 30*time.Millisecond)

	_, err := svc.Stream(context.Background(), "c", 0, "front")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRendererFailure)
	assert.Contains(t, err.Error(), "no output")
	assert.Equal(t, 1, renderer.lastProc().Stops())
	assert.Equal(t, 1, tel.renderFails)
}

func TestRenderService_Stream_ProcessExitsWithoutOutput(t *testing.T) {
	renderer := &fakeRenderer{
		dir: t.TempDir(),
		script: func(p *fakeRenderProcess) {
			p.exit(&domain.RendererError{ExitCode: 1, Stderr: "Invalid data found", Err: errors.New("exit status 1")})
		},
	}
	svc, _ := newTestRenderService(t, renderer, time.Second)

	_, err := svc.Stream(context.Background(), "c", 0, "front")

	var rerr *domain.RendererError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 1, rerr.ExitCode)
	assert.Equal(t, "Invalid data found", rerr.Stderr)
	assert.Equal(t, 1, renderer.lastProc().Stops())
}

func TestRenderService_Stream_Cancelled(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir()}
	svc, _ := newTestRenderService(t, renderer, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := svc.Stream(ctx, "c", 0, "front")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, renderer.lastProc().Stops())
}

func TestRenderService_Stream_StartFailure(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir(), startErr: errors.New("executable file not found")}
	svc, tel := newTestRenderService(t, renderer, time.Second)

	_, err := svc.Stream(context.Background(), "c", 0, "front")

	assert.ErrorIs(t, err, domain.ErrRendererFailure)
	assert.Equal(t, 1, tel.renderFails)
}

func TestRenderService_Stream_InvalidRequests(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir()}
	svc, _ := newTestRenderService(t, renderer, time.Second)

	_, err := svc.Stream(context.Background(), "missing", 0, "front")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Stream(context.Background(), "c", 5, "front")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Stream(context.Background(), "c", 1, "left_repeater")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRenderService_Compose(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chunk.ts")
	renderer := &fakeRenderer{
		dir: t.TempDir(),
		script: func(p *fakeRenderProcess) {
			_ = os.WriteFile(p.output, []byte("mpegts"), 0o600)
			p.exit(nil)
		},
	}
	svc, _ := newTestRenderService(t, renderer, time.Second)

	err := svc.Compose(context.Background(), "c", 0, "front", out)

	require.NoError(t, err)
	assert.Equal(t, out, renderer.lastJob().Output)
	assert.Equal(t, 1, renderer.lastProc().Stops())
}

func TestRenderService_Compose_Failure(t *testing.T) {
	renderer := &fakeRenderer{
		dir:    t.TempDir(),
		script: func(p *fakeRenderProcess) { p.exit(errors.New("signal: killed")) },
	}
	svc, tel := newTestRenderService(t, renderer, time.Second)

	err := svc.Compose(context.Background(), "c", 0, "front", filepath.Join(t.TempDir(), "x.ts"))

	assert.ErrorIs(t, err, domain.ErrRendererFailure)
	assert.Equal(t, 1, tel.renderFails)
}

func TestRenderService_Compose_RequiresOutput(t *testing.T) {
	svc, _ := newTestRenderService(t, &fakeRenderer{dir: t.TempDir()}, time.Second)

	err := svc.Compose(context.Background(), "c", 0, "front", "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
