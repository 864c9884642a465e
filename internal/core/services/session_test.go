package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

const waitFor = 2 * time.Second

func newTestPlaybackService(clips ...domain.Clip) (*PlaybackService, *fakeSurfaceFactory, *manualClock) {
	factory := newFakeSurfaceFactory()
	clock := newManualClock()
	index := &staticIndex{idx: domain.NewStorageIndex(clips, nil, time.Now())}
	defaults := domain.PlaybackOptions{
		Cameras:             []string{"front", "back"},
		Primary:             "front",
		PlaceholderDuration: time.Minute,
	}
	return NewPlaybackService(index, factory, clock, defaults, &fakeTelemetry{}, nil), factory, clock
}

func TestPlaybackService_Start_UnknownClip(t *testing.T) {
	svc, _, _ := newTestPlaybackService()

	_, err := svc.Start(context.Background(), "missing", domain.PlaybackOptions{})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaybackService_Stop_WithoutSession(t *testing.T) {
	svc, _, _ := newTestPlaybackService()

	assert.ErrorIs(t, svc.Stop(), domain.ErrNoSession)
}

func TestPlaybackService_Start_AppliesDefaults(t *testing.T) {
	clip := makeClip("c", []string{"front", "back"}, []string{"front", "back"})
	svc, factory, _ := newTestPlaybackService(clip)
	t.Cleanup(func() { _ = svc.Stop() })

	id, err := svc.Start(context.Background(), "c", domain.PlaybackOptions{})

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	st := svc.Status()
	assert.Equal(t, id, st.SessionID)
	assert.True(t, st.Active)
	assert.Equal(t, 0, st.ChunkIndex)
	assert.Equal(t, 2, st.ChunkCount)
	require.Len(t, st.Feeds, 2)
	assert.Equal(t, "front", st.Feeds[0].Camera)
	assert.True(t, st.Feeds[0].Primary)
	assert.Len(t, factory.all("back"), 2)
}

func TestPlaybackService_AdvancesThroughClip(t *testing.T) {
	clip := makeClip("c", []string{"front"}, []string{"front"})
	svc, factory, _ := newTestPlaybackService(clip)
	t.Cleanup(func() { _ = svc.Stop() })

	_, err := svc.Start(context.Background(), "c", domain.PlaybackOptions{Cameras: []string{"front"}})
	require.NoError(t, err)

	feedState := func() domain.FeedState {
		f, _ := svc.Status().Feed("front")
		return f.State
	}

	factory.loaded("front", segPath("c", 0, "front")).emitOpened()
	require.Eventually(t, func() bool { return feedState() == domain.FeedPlaying }, waitFor, time.Millisecond)

	factory.playing("front").emitEnded()
	require.Eventually(t, func() bool { return svc.Status().ChunkIndex == 1 }, waitFor, time.Millisecond)

	require.Eventually(t, func() bool {
		s := factory.loaded("front", segPath("c", 1, "front"))
		return s != nil
	}, waitFor, time.Millisecond)
	factory.loaded("front", segPath("c", 1, "front")).emitOpened()
	require.Eventually(t, func() bool { return feedState() == domain.FeedPlaying }, waitFor, time.Millisecond)

	factory.playing("front").emitEnded()
	require.Eventually(t, func() bool { return svc.Status().Exhausted }, waitFor, time.Millisecond)
	assert.True(t, svc.Status().Active)
}

func TestPlaybackService_PlaceholderTimerAdvances(t *testing.T) {
	clip := makeClip("c", []string{"front"}, []string{"front", "back"})
	svc, _, clock := newTestPlaybackService(clip)
	t.Cleanup(func() { _ = svc.Stop() })

	_, err := svc.Start(context.Background(), "c", domain.PlaybackOptions{Primary: "back"})
	require.NoError(t, err)
	require.Equal(t, 1, clock.pending())

	clock.Advance(time.Minute)

	require.Eventually(t, func() bool { return svc.Status().ChunkIndex == 1 }, waitFor, time.Millisecond)
}

func TestPlaybackService_Stop(t *testing.T) {
	clip := makeClip("c", []string{"front", "back"})
	svc, factory, _ := newTestPlaybackService(clip)

	id, err := svc.Start(context.Background(), "c", domain.PlaybackOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.Stop())

	st := svc.Status()
	assert.Equal(t, id, st.SessionID)
	assert.False(t, st.Active)
	for _, f := range st.Feeds {
		assert.Equal(t, domain.FeedIdle, f.State)
	}
	for _, cam := range []string{"front", "back"} {
		for _, s := range factory.all(cam) {
			assert.Empty(t, s.Loaded())
		}
	}
	assert.ErrorIs(t, svc.Stop(), domain.ErrNoSession)
}

func TestPlaybackService_StartReplacesSession(t *testing.T) {
	first := makeClip("first", []string{"front"})
	second := makeClip("second", []string{"front"})
	svc, factory, _ := newTestPlaybackService(first, second)
	t.Cleanup(func() { _ = svc.Stop() })

	firstID, err := svc.Start(context.Background(), "first", domain.PlaybackOptions{Cameras: []string{"front"}})
	require.NoError(t, err)
	firstSurfaces := factory.all("front")

	secondID, err := svc.Start(context.Background(), "second", domain.PlaybackOptions{Cameras: []string{"front"}})
	require.NoError(t, err)

	assert.NotEqual(t, firstID, secondID)
	assert.Equal(t, "second", svc.Status().ClipID)
	assert.Equal(t, secondID, svc.Status().SessionID)
	for _, s := range firstSurfaces {
		assert.Empty(t, s.Loaded(), "old session released")
	}
}

func TestPlaybackService_ConcurrentStartsLeaveOneSession(t *testing.T) {
	clip := makeClip("c", []string{"front"})
	svc, factory, _ := newTestPlaybackService(clip)
	opts := domain.PlaybackOptions{Cameras: []string{"front"}}

	const starts = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []string
	)
	for range starts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.Start(context.Background(), "c", opts)
			if err != nil {
				assert.ErrorIs(t, err, errSessionReplaced)
				return
			}
			mu.Lock()
			ids = append(ids, id)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.NotEmpty(t, ids)
	live := svc.Status().SessionID
	assert.Contains(t, ids, live)

	require.NoError(t, svc.Stop())
	assert.ErrorIs(t, svc.Stop(), domain.ErrNoSession)
	for _, s := range factory.all("front") {
		assert.Empty(t, s.Loaded(), "every session released its surfaces")
	}
}

func TestPlaybackService_Subscribe(t *testing.T) {
	clip := makeClip("c", []string{"front"})
	svc, _, _ := newTestPlaybackService(clip)

	var (
		mu   sync.Mutex
		seen []domain.PlaybackStatus
	)
	unsubscribe := svc.Subscribe(func(st domain.PlaybackStatus) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st)
	})

	_, err := svc.Start(context.Background(), "c", domain.PlaybackOptions{})
	require.NoError(t, err)
	require.NoError(t, svc.Stop())
	unsubscribe()

	mu.Lock()
	count := len(seen)
	require.NotZero(t, count)
	assert.True(t, seen[0].Active)
	assert.False(t, seen[count-1].Active)
	mu.Unlock()

	_, err = svc.Start(context.Background(), "c", domain.PlaybackOptions{})
	require.NoError(t, err)
	require.NoError(t, svc.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, count, "no updates after unsubscribe")
}
