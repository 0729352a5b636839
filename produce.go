package gostreams

import (
	"context"
	"sync"
	"sync/atomic"
)

// Producer returns a fresh stream each time it is called.
// Streams are single-use, so producers are how a source is restarted, replayed, or retried.
type Producer[T any] func() *Stream[T]

// Produce returns a stream that synchronously emits the elements of the given slices, in order,
// then fulfills.
// If the stream is paused, or settled by a downstream stream such as the one returned by Take,
// production stops immediately. A paused stream continues where it left off when resumed.
func Produce[T any](slices ...[]T) *Stream[T] {
	sliceIdx, idx := 0, 0

	return produceSync(func() (T, bool) {
		for sliceIdx < len(slices) {
			if idx < len(slices[sliceIdx]) {
				elem := slices[sliceIdx][idx]
				idx++

				return elem, true
			}

			sliceIdx++
			idx = 0
		}

		var zero T
		return zero, false
	})
}

// Sequence returns a stream that synchronously emits elems, in order, then fulfills.
func Sequence[T any](elems ...T) *Stream[T] {
	return Produce(elems)
}

// InfiniteSequence returns a stream that synchronously emits seed, next(seed), next(next(seed)), and so on.
// The stream never fulfills, so it must be bounded by a downstream stream, for example using Take,
// or it will block the goroutine that started it forever.
func InfiniteSequence[T any](seed T, next func(T) T) *Stream[T] {
	elem := seed
	started := false

	return produceSync(func() (T, bool) {
		if started {
			elem = next(elem)
		}

		started = true

		return elem, true
	})
}

// Once returns a stream that emits elem, then fulfills.
func Once[T any](elem T) *Stream[T] {
	return Sequence(elem)
}

// Never returns a stream that never emits and never settles on its own.
func Never[T any]() *Stream[T] {
	return New(func(Sink[T], *Configure) {})
}

// Empty returns a stream that fulfills without emitting.
func Empty[T any]() *Stream[T] {
	return New(func(sink Sink[T], _ *Configure) {
		sink.Fulfill()
	})
}

// Fail returns a stream that rejects with err without emitting.
func Fail[T any](err error) *Stream[T] {
	return New(func(sink Sink[T], _ *Configure) {
		sink.Reject(err)
	})
}

// Defer returns a stream that calls prod when it is started, and then mirrors the stream prod returned.
func Defer[T any](prod Producer[T]) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		relay(sink, cfg, prod(), func(elem T) {
			sink.Emit(elem)
		})
	})
}

// FromChannel returns a stream that emits the elements received through ch, in order,
// and fulfills when ch is closed.
// ch is read by a separate goroutine, started with the stream. Elements received while the stream
// is paused are dropped. If ctx is done first, the stream is cancelled with the context's cause.
func FromChannel[T any](ctx context.Context, ch <-chan T) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		ctx, cancel := context.WithCancelCause(ctx)

		cfg.OnCancel(cancel)

		go func() {
			defer cancel(nil)

			for {
				select {
				case <-ctx.Done():
					sink.Cancel(context.Cause(ctx))
					return

				case elem, ok := <-ch:
					if !ok {
						sink.Fulfill()
						return
					}

					sink.Emit(elem)
				}
			}
		}()
	})
}

// produceSync returns a stream that calls next and emits its result for as long as the stream is Running.
// When next returns false, the stream fulfills.
// next is only ever called by one goroutine at a time.
func produceSync[T any](next func() (T, bool)) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		mu := sync.Mutex{}
		finished := atomic.Bool{}

		produce := func() {
			for !finished.Load() && sink.Running() {
				// Emitting may resume the stream again on the same goroutine,
				// in which case the outer loop just keeps going.
				if !mu.TryLock() {
					return
				}

				for sink.Running() {
					elem, ok := next()
					if !ok {
						finished.Store(true)
						break
					}

					sink.Emit(elem)
				}

				mu.Unlock()
			}

			if finished.Load() {
				sink.Fulfill()
			}
		}

		cfg.OnResume(produce)
	})
}
