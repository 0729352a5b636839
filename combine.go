package gostreams

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/slices"
)

// Pair holds one element of each of two streams.
type Pair[A any, B any] struct {
	First  A
	Second B
}

// Merge returns a stream that emits the elements of all the given streams, as they arrive.
// It fulfills once every stream has fulfilled. As soon as one of them rejects or is cancelled,
// the merged stream settles the same way, and the other streams are cancelled.
// Merging no streams yields a stream that fulfills immediately.
func Merge[T any](streams ...*Stream[T]) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		if len(streams) == 0 {
			sink.Fulfill()
			return
		}

		ups := &upstreams{}
		cfg.Chain(ups)

		mu := sync.Mutex{}
		fulfilled := bitset.New(uint(len(streams)))

		for i, s := range streams {
			ups.add(s)

			s.Subscribe(func(elem T) {
				sink.Emit(elem)
			}, func(o Outcome) {
				if !o.Fulfilled() {
					sink.Settle(o)
					ups.Cancel(o.Err)

					return
				}

				mu.Lock()
				fulfilled.Set(uint(i))
				all := fulfilled.All()
				mu.Unlock()

				if all {
					sink.Fulfill()
				}
			})
		}
	})
}

// Concat returns a stream that emits the elements of the given streams, one stream after the other.
// Each stream is only started once the one before it has fulfilled.
// If one of the streams rejects or is cancelled, the remaining streams are cancelled
// and the concatenated stream settles the same way.
func Concat[T any](streams ...*Stream[T]) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		ups := &upstreams{}
		cfg.Chain(ups)

		mu := sync.Mutex{}
		pos := 0

		abortPending := func(reason error) {
			mu.Lock()
			pending := streams[min(pos+1, len(streams)):]
			pos = len(streams)
			mu.Unlock()

			for _, s := range pending {
				s.Cancel(reason)
			}
		}

		cfg.OnCancel(abortPending)

		var start func(i int)

		start = func(i int) {
			if i == len(streams) {
				sink.Fulfill()
				return
			}

			mu.Lock()
			pos = i
			mu.Unlock()

			s := streams[i]
			remove := ups.add(s)

			s.Subscribe(func(elem T) {
				sink.Emit(elem)
			}, func(o Outcome) {
				remove()

				if !o.Fulfilled() {
					abortPending(o.Err)
					sink.Settle(o)

					return
				}

				if sink.Settled() {
					return
				}

				start(i + 1)
			})
		}

		start(0)
	})
}

// CombineLatest returns a stream that emits the latest element of every given stream,
// each time one of them emits, once all of them have emitted at least once.
// Elements are emitted as a slice, in the order of streams.
// It fulfills once all streams have fulfilled, or as soon as a stream fulfills without ever emitting.
// CombineLatest panics if given fewer than two streams.
func CombineLatest[T any](streams ...*Stream[T]) *Stream[[]T] {
	if len(streams) < 2 {
		panic("gostreams: CombineLatest needs at least two streams")
	}

	return New(func(sink Sink[[]T], cfg *Configure) {
		ups := &upstreams{}
		cfg.Chain(ups)

		mu := sync.Mutex{}
		latest := make([]T, len(streams))
		initialized := bitset.New(uint(len(streams)))
		fulfilled := bitset.New(uint(len(streams)))

		for i, s := range streams {
			ups.add(s)

			s.Subscribe(func(elem T) {
				mu.Lock()

				latest[i] = elem
				initialized.Set(uint(i))

				if !initialized.All() {
					mu.Unlock()
					return
				}

				out := slices.Clone(latest)

				mu.Unlock()

				sink.Emit(out)
			}, func(o Outcome) {
				if !o.Fulfilled() {
					sink.Settle(o)
					ups.Cancel(o.Err)

					return
				}

				mu.Lock()
				fulfilled.Set(uint(i))
				done := fulfilled.All() || !initialized.Test(uint(i))
				mu.Unlock()

				if done {
					sink.Fulfill()
					ups.Cancel(ErrShortCircuit)
				}
			})
		}
	})
}

// Zip returns a stream that pairs up the elements of the given streams by position:
// the n-th emitted slice holds the n-th element of every stream, in the order of streams.
// Elements of faster streams are queued until every stream has emitted.
// It fulfills as soon as a fulfilled stream has no queued elements left, since no further slice can be completed.
// Zip panics if given fewer than two streams.
func Zip[T any](streams ...*Stream[T]) *Stream[[]T] {
	if len(streams) < 2 {
		panic("gostreams: Zip needs at least two streams")
	}

	return New(func(sink Sink[[]T], cfg *Configure) {
		ups := &upstreams{}
		cfg.Chain(ups)

		mu := sync.Mutex{}
		queues := make([][]T, len(streams))
		fulfilled := bitset.New(uint(len(streams)))

		// exhausted must be called with mu held.
		exhausted := func() bool {
			for i, ok := fulfilled.NextSet(0); ok; i, ok = fulfilled.NextSet(i + 1) {
				if len(queues[i]) == 0 {
					return true
				}
			}

			return false
		}

		finish := func() {
			sink.Fulfill()
			ups.Cancel(ErrShortCircuit)
		}

		for i, s := range streams {
			ups.add(s)

			s.Subscribe(func(elem T) {
				mu.Lock()

				queues[i] = append(queues[i], elem)

				var tuples [][]T

				for slices.IndexFunc(queues, func(q []T) bool { return len(q) == 0 }) < 0 {
					tuple := make([]T, len(queues))
					for j := range queues {
						tuple[j] = queues[j][0]
						queues[j] = queues[j][1:]
					}

					tuples = append(tuples, tuple)
				}

				done := exhausted()

				mu.Unlock()

				for _, tuple := range tuples {
					sink.Emit(tuple)
				}

				if done {
					finish()
				}
			}, func(o Outcome) {
				if !o.Fulfilled() {
					sink.Settle(o)
					ups.Cancel(o.Err)

					return
				}

				mu.Lock()
				fulfilled.Set(uint(i))
				done := exhausted()
				mu.Unlock()

				if done {
					finish()
				}
			})
		}
	})
}

// Zip2 is like Zip, for two streams of different element types.
func Zip2[A any, B any](a *Stream[A], b *Stream[B]) *Stream[Pair[A, B]] {
	return Map(Zip(erase(a), erase(b)), FuncMapper(toPair[A, B]))
}

// CombineLatest2 is like CombineLatest, for two streams of different element types.
func CombineLatest2[A any, B any](a *Stream[A], b *Stream[B]) *Stream[Pair[A, B]] {
	return Map(CombineLatest(erase(a), erase(b)), FuncMapper(toPair[A, B]))
}

func erase[T any](s *Stream[T]) *Stream[any] {
	return Map(s, FuncMapper(func(elem T) any {
		return elem
	}))
}

func toPair[A any, B any](elems []any) Pair[A, B] {
	a, _ := elems[0].(A)
	b, _ := elems[1].(B)

	return Pair[A, B]{First: a, Second: b}
}
