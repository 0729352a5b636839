package gostreams

import (
	"sync"

	"golang.org/x/exp/slices"
)

// replayer shares one upstream stream between any number of replay streams.
type replayer[T any] struct {
	mu sync.Mutex

	capacity int
	history  []T
	outcome  *Outcome

	listeners []replayListener[T]
	nextID    uint64
}

type replayListener[T any] struct {
	id   uint64
	sink Sink[T]
}

// Replay starts the stream returned by prod right away, and returns a producer of streams
// that share it. Every new stream first emits up to capacity of the most recent elements
// emitted so far, then continues with live elements, and settles like the shared stream.
// Cancelling a replay stream does not affect the shared stream or other replay streams.
//
// Replay panics if capacity is negative.
func Replay[T any](prod Producer[T], capacity int) Producer[T] {
	if capacity < 0 {
		panic("gostreams: negative replay capacity")
	}

	r := &replayer[T]{capacity: capacity}

	prod().Subscribe(r.push, r.settle)

	return r.stream
}

func (r *replayer[T]) push(elem T) {
	r.mu.Lock()

	if r.capacity > 0 {
		r.history = append(r.history, elem)
		if len(r.history) > r.capacity {
			r.history = r.history[1:]
		}
	}

	listeners := r.listeners

	r.mu.Unlock()

	for _, l := range listeners {
		l.sink.Emit(elem)
	}
}

func (r *replayer[T]) settle(o Outcome) {
	r.mu.Lock()

	r.outcome = &o

	listeners := r.listeners
	r.listeners = nil

	r.mu.Unlock()

	for _, l := range listeners {
		l.sink.Settle(o)
	}
}

// stream returns a new replay stream.
// Elements the shared stream emits on another goroutine while the history is being replayed
// may be delivered before the end of the history.
func (r *replayer[T]) stream() *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		r.mu.Lock()

		history := slices.Clone(r.history)
		outcome := r.outcome

		id := r.nextID
		r.nextID++

		if outcome == nil {
			r.listeners = append(r.listeners, replayListener[T]{id: id, sink: sink})
		}

		r.mu.Unlock()

		for _, elem := range history {
			sink.Emit(elem)
		}

		if outcome != nil {
			sink.Settle(*outcome)
			return
		}

		cfg.OnCancel(func(error) {
			r.remove(id)
		})
	})
}

func (r *replayer[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.listeners, func(l replayListener[T]) bool {
		return l.id == id
	})
	if i >= 0 {
		r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
	}
}

// Retry returns a producer whose streams mirror a stream returned by prod.
// If that stream rejects, prod is called again, up to n more times, and the new stream takes its place.
// Elements emitted by failed attempts have already been delivered.
// Retry panics if n is negative.
func Retry[T any](prod Producer[T], n int) Producer[T] {
	if n < 0 {
		panic("gostreams: negative retry count")
	}

	return func() *Stream[T] {
		return Catch(prod(), func(err error) *Stream[T] {
			if n == 0 {
				return Fail[T](err)
			}

			return Retry(prod, n-1)()
		})
	}
}

// Repeat returns a producer whose streams run n streams returned by prod, one after the other,
// and fulfill after the last one fulfills. Each call to prod is only made once the previous stream fulfilled.
// Repeat panics if n is negative.
func Repeat[T any](prod Producer[T], n int) Producer[T] {
	if n < 0 {
		panic("gostreams: negative repeat count")
	}

	return func() *Stream[T] {
		if n == 0 {
			return Empty[T]()
		}

		return Concat(Defer(prod), Defer(Repeat(prod, n-1)))
	}
}
