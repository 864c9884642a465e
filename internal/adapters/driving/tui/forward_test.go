package tui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatest_KeepsLastValue(t *testing.T) {
	l := newLatest[int]()

	l.put(1)
	l.put(2)
	l.put(3)

	assert.Equal(t, 3, l.get())
	assert.Len(t, l.notify, 1)
}

func TestLatest_Forward(t *testing.T) {
	l := newLatest[string]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 10)
	go l.forward(ctx, func(v string) { got <- v })

	l.put("a")
	select {
	case v := <-got:
		assert.Equal(t, "a", v)
	case <-time.After(time.Second):
		t.Fatal("value not forwarded")
	}

	l.put("b")
	assert.Eventually(t, func() bool {
		select {
		case v := <-got:
			return v == "b"
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestLatest_ForwardStopsOnCancel(t *testing.T) {
	l := newLatest[int]()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		l.forward(ctx, func(int) {})
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward did not return")
	}
}
