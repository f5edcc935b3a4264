package gateway

import (
	"context"
	"sync"
)

// QueryState is the observable state of a Query.
type QueryState[T any] struct {
	Data    T
	Loading bool
	Err     error
}

// Query is a single GET whose result is published as state, for views that render
// "loading, data, or error" for a backend resource.
//
// Cancel aborts the in-flight call and freezes the state: a result that arrives after
// Cancel is never applied.
type Query[T any] struct {
	mu        sync.Mutex
	state     QueryState[T]
	cancelled bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// StartQuery issues GET path through g and returns immediately.
func StartQuery[T any](ctx context.Context, g *Gateway, path string) *Query[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	q := &Query[T]{
		state:  QueryState[T]{Loading: true},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(q.done)
		defer cancel()

		var data T
		_, err := g.Get(ctx, path, &data)

		q.mu.Lock()
		defer q.mu.Unlock()
		if q.cancelled {
			return
		}
		if err != nil {
			var zero T
			q.state = QueryState[T]{Data: zero, Err: err}
			return
		}
		q.state = QueryState[T]{Data: data}
	}()

	return q
}

// State returns the current state.
func (q *Query[T]) State() QueryState[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Cancel aborts the call. It is safe to call more than once.
func (q *Query[T]) Cancel() {
	q.mu.Lock()
	q.cancelled = true
	q.mu.Unlock()
	q.cancel()
}

// Wait blocks until the call finishes or ctx is done, then returns the state.
func (q *Query[T]) Wait(ctx context.Context) QueryState[T] {
	select {
	case <-q.done:
	case <-ctx.Done():
	}
	return q.State()
}
