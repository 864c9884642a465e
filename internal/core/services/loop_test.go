package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop, cancel
}

func TestLoop_RunsPostedWorkInOrder(t *testing.T) {
	loop, _ := runLoop(t)

	var (
		mu  sync.Mutex
		got []int
	)
	for i := range 50 {
		require.True(t, loop.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, loop.Call(context.Background(), func() {}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoop_CallWaitsForResult(t *testing.T) {
	loop, _ := runLoop(t)

	var value int
	err := loop.Call(context.Background(), func() { value = 42 })

	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestLoop_PostFromInsideLoop(t *testing.T) {
	loop, _ := runLoop(t)
	done := make(chan struct{})

	loop.Dispatch(func() {
		loop.Dispatch(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested dispatch never ran")
	}
}

func TestLoop_StoppedLoopRejectsWork(t *testing.T) {
	loop, cancel := runLoop(t)
	cancel()
	<-loop.Done()

	assert.False(t, loop.Post(func() {}))
	assert.ErrorIs(t, loop.Call(context.Background(), func() {}), ErrLoopStopped)
}

func TestLoop_CallHonoursContext(t *testing.T) {
	loop, _ := runLoop(t)
	release := make(chan struct{})
	loop.Dispatch(func() { <-release })
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := loop.Call(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoop_RunReturnsContextError(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := loop.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	select {
	case <-loop.Done():
	default:
		t.Fatal("done not closed")
	}
}
