package domain

import (
	"context"
	"sync"
)

// Reply is a single-slot, write-once hand-off carrying a result from
// the consumer back to the producer that is blocked waiting for it.
// The consumer is the only writer; only the first delivery is
// observed.
type Reply[T any] struct {
	once sync.Once
	ch   chan T
}

func NewReply[T any]() *Reply[T] {
	return &Reply[T]{ch: make(chan T, 1)}
}

// Deliver writes the value into the slot. Calls after the first are
// no-ops.
func (r *Reply[T]) Deliver(v T) {
	r.once.Do(func() {
		r.ch <- v
	})
}

// Await blocks until a value is delivered or ctx is done.
func (r *Reply[T]) Await(ctx context.Context) (T, error) {
	select {
	case v := <-r.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
