package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrScanInProgress indicates a storage scan is already running.
	ErrScanInProgress = errors.New("scan in progress")

	// Storage Errors.

	// ErrAccessDenied indicates a storage root or subtree could not be read.
	// Scans report it per root and continue with the remaining roots.
	ErrAccessDenied = errors.New("access denied")

	// Playback Errors.

	// ErrRendererFailure indicates the external media tool failed to start,
	// exited early, or never produced output.
	ErrRendererFailure = errors.New("renderer failure")

	// ErrPlaybackFailure indicates a playback surface could not open or play
	// a segment.
	ErrPlaybackFailure = errors.New("playback failure")

	// ErrNoSession indicates there is no active playback session.
	ErrNoSession = errors.New("no playback session")
)

// RootError records a storage root that could not be scanned.
type RootError struct {
	Root string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("root %s: %v", e.Root, e.Err)
}

func (e *RootError) Unwrap() error {
	return e.Err
}

// SubtreeError records a directory beneath a root that was skipped
// because it could not be read.
type SubtreeError struct {
	Path string
	Err  error
}

func (e *SubtreeError) Error() string {
	return fmt.Sprintf("skipped %s: %v", e.Path, e.Err)
}

func (e *SubtreeError) Unwrap() error {
	return e.Err
}

// RendererError describes a failed render process.
type RendererError struct {
	// ExitCode is the process exit code, or -1 if it never exited normally.
	ExitCode int

	// Stderr holds the last lines the tool wrote to stderr.
	Stderr string

	// Err is the underlying cause.
	Err error
}

func (e *RendererError) Error() string {
	msg := "renderer failure"
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s (exit %d)", msg, e.ExitCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stderr)
	}
	return msg
}

// Is reports ErrRendererFailure so callers can match on the sentinel.
func (e *RendererError) Is(target error) bool {
	return target == ErrRendererFailure
}

func (e *RendererError) Unwrap() error {
	return e.Err
}

// PlaybackError describes a segment that a surface failed to play.
type PlaybackError struct {
	Camera string
	Path   string
	Err    error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback failure on %s (%s): %v", e.Camera, e.Path, e.Err)
}

// Is reports ErrPlaybackFailure so callers can match on the sentinel.
func (e *PlaybackError) Is(target error) bool {
	return target == ErrPlaybackFailure
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}
