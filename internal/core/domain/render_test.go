package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderJob(t *testing.T) {
	ts := time.Date(2023, 2, 23, 14, 6, 15, 0, time.UTC)
	chunk := testChunk(ts, "front", "back", "left_repeater")

	job, err := NewRenderJob(chunk, "front", DefaultCameras(), DefaultComposition())

	require.NoError(t, err)
	assert.Equal(t, "front", job.Primary.Camera)
	assert.Equal(t, chunk.Segments["front"].Path, job.Primary.Path)
	require.Len(t, job.Overlays, 3)
	assert.Equal(t, "back", job.Overlays[0].Camera)
	assert.False(t, job.Overlays[0].Placeholder())
	assert.Equal(t, "right_repeater", job.Overlays[2].Camera)
	assert.True(t, job.Overlays[2].Placeholder())
}

func TestNewRenderJob_MissingPrimary(t *testing.T) {
	chunk := testChunk(time.Now(), "front")

	_, err := NewRenderJob(chunk, "back", DefaultCameras(), DefaultComposition())

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewRenderJob_CapsOverlays(t *testing.T) {
	chunk := testChunk(time.Now(), "front")
	overlays := []string{"a", "b", "c", "d", "e", "f"}

	job, err := NewRenderJob(chunk, "front", overlays, DefaultComposition())

	require.NoError(t, err)
	assert.Len(t, job.Overlays, MaxOverlays)
}

func TestDefaultComposition(t *testing.T) {
	c := DefaultComposition()

	assert.Equal(t, "256x192", c.Resolution())
	assert.Equal(t, 30, c.Padding)
	assert.Equal(t, time.Minute, c.Duration)
	assert.Equal(t, "mpegts", c.Format)
}
