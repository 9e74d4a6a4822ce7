package kirara

import (
	"context"
	"sync"
)

// Future is an asynchronous result handle filled exactly once by the
// transport worker. It resolves either with a deserialized value or with
// the error that failed the exchange.
//
// Abandoning a future does not interrupt the in-flight exchange; cancel the
// context passed to Send to abort the underlying HTTP call.
//
// Example:
//
//	future := req.Send(ctx)
//	user, err := future.Wait(ctx)
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// CompletedFuture returns a future already resolved with value.
func CompletedFuture[T any](value T) *Future[T] {
	f := newFuture[T]()
	f.complete(value, nil)
	return f
}

// FailedFuture returns a future already resolved with err.
func FailedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.complete(zero, err)
	return f
}

// complete fills the future. Later calls are ignored.
func (f *Future[T]) complete(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the future resolves or ctx is done. When ctx expires
// first, the exchange keeps running in the background and the future can
// still be waited on again.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed when the future resolves. Use it to select
// across several pending requests.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
