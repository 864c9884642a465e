package tui

import (
	"context"
	"sync"
)

// latest hands the most recent value from a producer that must not block
// to a consumer that may. Intermediate values are dropped; the last one
// never is.
type latest[T any] struct {
	mu     sync.Mutex
	val    T
	notify chan struct{}
}

func newLatest[T any]() *latest[T] {
	return &latest[T]{notify: make(chan struct{}, 1)}
}

func (l *latest[T]) put(v T) {
	l.mu.Lock()
	l.val = v
	l.mu.Unlock()
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

func (l *latest[T]) get() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.val
}

// forward calls send with each new value until ctx is done.
func (l *latest[T]) forward(ctx context.Context, send func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.notify:
			send(l.get())
		}
	}
}
