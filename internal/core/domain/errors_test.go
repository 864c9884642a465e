package domain

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrScanInProgress", ErrScanInProgress},
		{"ErrAccessDenied", ErrAccessDenied},
		{"ErrRendererFailure", ErrRendererFailure},
		{"ErrPlaybackFailure", ErrPlaybackFailure},
		{"ErrNoSession", ErrNoSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestRootError(t *testing.T) {
	err := &RootError{Root: "/media/usb/TeslaCam", Err: ErrAccessDenied}

	assert.Equal(t, "root /media/usb/TeslaCam: access denied", err.Error())
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestSubtreeError(t *testing.T) {
	err := &SubtreeError{Path: "/x/locked", Err: fs.ErrPermission}

	assert.Contains(t, err.Error(), "/x/locked")
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestRendererError(t *testing.T) {
	cause := errors.New("signal: killed")
	err := &RendererError{ExitCode: 1, Stderr: "No such file", Err: cause}

	assert.ErrorIs(t, err, ErrRendererFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "renderer failure (exit 1): signal: killed: No such file", err.Error())

	var target *RendererError
	assert.True(t, errors.As(error(err), &target))
	assert.Equal(t, 1, target.ExitCode)
}

func TestRendererError_NoExit(t *testing.T) {
	err := &RendererError{ExitCode: -1}
	assert.Equal(t, "renderer failure", err.Error())
}

func TestPlaybackError(t *testing.T) {
	err := &PlaybackError{Camera: "back", Path: "/c/back.mp4", Err: errors.New("corrupt")}

	assert.ErrorIs(t, err, ErrPlaybackFailure)
	assert.False(t, errors.Is(err, ErrRendererFailure))
	assert.Equal(t, "playback failure on back (/c/back.mp4): corrupt", err.Error())
}
