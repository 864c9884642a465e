package player

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
)

type stubPlayback struct {
	driving.PlaybackService
	status   domain.PlaybackStatus
	startErr error
	stopErr  error
	started  []string
	stops    int
}

func (s *stubPlayback) Start(_ context.Context, clipID string, _ domain.PlaybackOptions) (string, error) {
	s.started = append(s.started, clipID)
	return "session-1", s.startErr
}

func (s *stubPlayback) Stop() error {
	s.stops++
	return s.stopErr
}

func (s *stubPlayback) Status() domain.PlaybackStatus {
	return s.status
}

func playingStatus() domain.PlaybackStatus {
	return domain.PlaybackStatus{
		SessionID:  "session-1",
		ClipID:     "clip-1",
		ClipName:   "02/23/2023 14:06:15",
		ChunkIndex: 1,
		ChunkCount: 4,
		ChunkTime:  time.Date(2023, 2, 23, 14, 7, 15, 0, time.UTC),
		Active:     true,
		Feeds: []domain.FeedStatus{
			{Camera: "front", Primary: true, State: domain.FeedPlaying, Path: "/clips/2023-02-23_14-07-15-front.mp4"},
			{Camera: "left_repeater", State: domain.FeedHolding, Err: errors.New("corrupt")},
		},
	}
}

func TestView_Init_ReportsCurrentStatus(t *testing.T) {
	stub := &stubPlayback{status: playingStatus()}
	view := NewView(nil, stub)

	cmd := view.Init()

	require.NotNil(t, cmd)
	updated, ok := cmd().(messages.PlaybackUpdated)
	require.True(t, ok)
	assert.Equal(t, "clip-1", updated.Status.ClipID)
}

func TestView_Init_NilService(t *testing.T) {
	view := NewView(nil, nil)

	assert.Nil(t, view.Init())
}

func TestView_Play(t *testing.T) {
	stub := &stubPlayback{}
	view := NewView(nil, stub)
	view.SetDimensions(100, 40)

	cmd := view.Play(domain.Clip{ID: "clip-1", Name: "alpha"})
	assert.Contains(t, view.View(), "Starting alpha...")

	msg := cmd()
	started, ok := msg.(messages.PlaybackStarted)
	require.True(t, ok)
	assert.Equal(t, "session-1", started.SessionID)
	assert.Equal(t, []string{"clip-1"}, stub.started)

	view.Update(started)
	assert.NotContains(t, view.View(), "Starting")
}

func TestView_PlayError(t *testing.T) {
	stub := &stubPlayback{startErr: domain.ErrNotFound}
	view := NewView(nil, stub)
	view.SetDimensions(100, 40)

	view.Update(view.Play(domain.Clip{ID: "gone"})())

	assert.ErrorIs(t, view.Err(), domain.ErrNotFound)
	assert.Contains(t, view.View(), "Error:")
}

func TestView_View_NothingPlaying(t *testing.T) {
	view := NewView(nil, &stubPlayback{})
	view.SetDimensions(100, 40)

	assert.Contains(t, view.View(), "Nothing is playing")
}

func TestView_View_Feeds(t *testing.T) {
	view := NewView(nil, &stubPlayback{})
	view.SetDimensions(100, 40)

	view.Update(messages.PlaybackUpdated{Status: playingStatus()})
	out := view.View()

	assert.Contains(t, out, "02/23/2023 14:06:15")
	assert.Contains(t, out, "chunk 2/4")
	assert.Contains(t, out, "02/23/2023 14:07:15")
	assert.Contains(t, out, "Front*")
	assert.Contains(t, out, "playing")
	assert.Contains(t, out, "2023-02-23_14-07-15-front.mp4")
	assert.Contains(t, out, "Left")
	assert.Contains(t, out, "holding")
	assert.Contains(t, out, "corrupt")
}

func TestView_View_Finished(t *testing.T) {
	st := playingStatus()
	st.Exhausted = true
	view := NewView(nil, &stubPlayback{})
	view.SetDimensions(100, 40)

	view.Update(messages.PlaybackUpdated{Status: st})

	assert.Contains(t, view.View(), "Finished")
	assert.InDelta(t, 1.0, view.fraction(), 0.001)
}

func TestView_Fraction(t *testing.T) {
	view := NewView(nil, &stubPlayback{})
	assert.Zero(t, view.fraction())

	view.Update(messages.PlaybackUpdated{Status: playingStatus()})
	assert.InDelta(t, 0.5, view.fraction(), 0.001)
}

func TestView_StopKey(t *testing.T) {
	stub := &stubPlayback{}
	view := NewView(nil, stub)
	view.Update(messages.PlaybackUpdated{Status: playingStatus()})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	require.NotNil(t, cmd)
	view.Update(cmd())

	assert.Equal(t, 1, stub.stops)
	assert.False(t, view.Status().Active)
	assert.NoError(t, view.Err())
}

func TestView_StopKeyWhenIdle(t *testing.T) {
	view := NewView(nil, &stubPlayback{})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})

	assert.Nil(t, cmd)
}

func TestView_StoppedNoSessionIsQuiet(t *testing.T) {
	view := NewView(nil, &stubPlayback{})

	view.Update(messages.PlaybackStopped{Err: domain.ErrNoSession})

	assert.NoError(t, view.Err())
}

func TestView_EscGoesToClips(t *testing.T) {
	view := NewView(nil, &stubPlayback{})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewClips}, cmd())
}

func TestView_SetDimensionsCapsProgress(t *testing.T) {
	view := NewView(nil, nil)

	view.SetDimensions(200, 40)
	assert.Equal(t, 60, view.progress.Width)

	view.SetDimensions(30, 40)
	assert.Equal(t, 26, view.progress.Width)
}
