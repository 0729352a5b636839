package gostreams

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/slices"
)

// Function returns the result of applying an operation to elem.
type Function[T any, U any] func(elem T) U

// MapperFunc maps element elem to type U.
// The index is the 0-based index of elem, in the order emitted by the upstream stream.
// Calling cancel cancels the stream being built, and with it the upstream chain.
type MapperFunc[T any, U any] func(cancel context.CancelCauseFunc, elem T, index uint64) U

// PredicateFunc returns true elem matches a predicate.
// The index is the 0-based index of elem, in the order emitted by the upstream stream.
type PredicateFunc[T any] func(cancel context.CancelCauseFunc, elem T, index uint64) bool

// LessFunc returns true if element a is "less" than element b.
type LessFunc[T any] func(a T, b T) bool

// FuncMapper returns a mapper that calls mapp for each element.
func FuncMapper[T any, U any](mapp Function[T, U]) MapperFunc[T, U] {
	return func(_ context.CancelCauseFunc, elem T, _ uint64) U {
		return mapp(elem)
	}
}

// FuncPredicate returns a predicate that calls pred for each element.
func FuncPredicate[T any](pred Function[T, bool]) PredicateFunc[T] {
	return func(_ context.CancelCauseFunc, elem T, _ uint64) bool {
		return pred(elem)
	}
}

// Identity returns a mapper that returns the same element it receives.
func Identity[T any]() MapperFunc[T, T] {
	return func(_ context.CancelCauseFunc, elem T, _ uint64) T {
		return elem
	}
}

// follow chains cfg to up and subscribes to it.
func follow[T any](cfg *Configure, up *Stream[T], onValue func(T), onSettle func(Outcome)) *Subscription {
	cfg.Chain(up)
	return up.Subscribe(onValue, onSettle)
}

// relay is follow with the upstream's settlement forwarded to sink unchanged.
func relay[T any, U any](sink Sink[U], cfg *Configure, up *Stream[T], onValue func(T)) *Subscription {
	return follow(cfg, up, onValue, sink.Settle)
}

// Map returns a stream that calls mapp for each element emitted by s, mapping it to type U.
func Map[T any, U any](s *Stream[T], mapp MapperFunc[T, U]) *Stream[U] {
	return New(func(sink Sink[U], cfg *Configure) {
		index := atomic.Uint64{}

		relay(sink, cfg, s, func(elem T) {
			outElem := mapp(sink.Cancel, elem, index.Add(1)-1)

			if sink.Settled() {
				return
			}

			sink.Emit(outElem)
		})
	})
}

// Filter returns a stream that calls filter for each element emitted by s, and only emits elements for which
// filter returns true.
func Filter[T any](s *Stream[T], filter PredicateFunc[T]) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		index := atomic.Uint64{}

		relay(sink, cfg, s, func(elem T) {
			if !filter(sink.Cancel, elem, index.Add(1)-1) {
				return
			}

			sink.Emit(elem)
		})
	})
}

// Peek returns a stream that calls peek for each element emitted by s, in order, and emits the same elements.
func Peek[T any](s *Stream[T], peek ConsumerFunc[T]) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		index := atomic.Uint64{}

		relay(sink, cfg, s, func(elem T) {
			peek(sink.Cancel, elem, index.Add(1)-1)

			if sink.Settled() {
				return
			}

			sink.Emit(elem)
		})
	})
}

// Take returns a stream that emits the same elements as s, in order, up to max elements.
// It fulfills right after emitting the last element, and cancels s using ErrLimitReached.
// A synchronous producer such as InfiniteSequence is stopped within the same call that emitted the last element.
func Take[T any](s *Stream[T], max uint64) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		if max == 0 {
			sink.Fulfill()
			return
		}

		mu := sync.Mutex{}
		done := uint64(0)

		relay(sink, cfg, s, func(elem T) {
			mu.Lock()

			if done == max {
				mu.Unlock()
				return
			}

			done++
			last := done == max

			mu.Unlock()

			sink.Emit(elem)

			if last {
				sink.Fulfill()
				s.Cancel(ErrLimitReached)
			}
		})
	})
}

// TakeWhile returns a stream that emits the elements of s for as long as pred returns true.
// At the first element that does not match, it fulfills and cancels s using ErrLimitReached.
func TakeWhile[T any](s *Stream[T], pred PredicateFunc[T]) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		index := atomic.Uint64{}

		relay(sink, cfg, s, func(elem T) {
			if sink.Settled() {
				return
			}

			if pred(sink.Cancel, elem, index.Add(1)-1) {
				sink.Emit(elem)
				return
			}

			sink.Fulfill()
			s.Cancel(ErrLimitReached)
		})
	})
}

// Skip returns a stream that emits the same elements as s, in order, skipping the first num elements.
func Skip[T any](s *Stream[T], num uint64) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		done := atomic.Uint64{}

		relay(sink, cfg, s, func(elem T) {
			if done.Add(1) <= num {
				return
			}

			sink.Emit(elem)
		})
	})
}

// Scan returns a stream that folds each element emitted by s into an accumulator, starting with acc,
// and emits every intermediate accumulator.
func Scan[T any, A any](s *Stream[T], acc A, scan AccumulatorFunc[T, A]) *Stream[A] {
	return New(func(sink Sink[A], cfg *Configure) {
		mu := sync.Mutex{}
		index := uint64(0)

		relay(sink, cfg, s, func(elem T) {
			mu.Lock()
			acc = scan(sink.Cancel, elem, index, acc)
			index++
			out := acc
			mu.Unlock()

			if sink.Settled() {
				return
			}

			sink.Emit(out)
		})
	})
}

// Sort returns a stream that collects the elements emitted by s, and once s fulfills,
// emits them in the order given by less.
func Sort[T any](s *Stream[T], less LessFunc[T]) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		mu := sync.Mutex{}
		result := []T{}

		follow(cfg, s, func(elem T) {
			mu.Lock()
			result = append(result, elem)
			mu.Unlock()
		}, func(o Outcome) {
			if !o.Fulfilled() {
				sink.Settle(o)
				return
			}

			mu.Lock()
			sorted := result
			result = nil
			mu.Unlock()

			slices.SortFunc(sorted, less)

			for _, elem := range sorted {
				sink.Emit(elem)
			}

			sink.Fulfill()
		})
	})
}

// Distinct returns a stream that emits each distinct element of s once, at its first occurrence.
// Every element seen is remembered until the stream settles.
func Distinct[T comparable](s *Stream[T]) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		mu := sync.Mutex{}
		seen := map[T]struct{}{}

		relay(sink, cfg, s, func(elem T) {
			mu.Lock()
			_, dup := seen[elem]
			seen[elem] = struct{}{}
			mu.Unlock()

			if dup {
				return
			}

			sink.Emit(elem)
		})
	})
}

// DistinctUntilChanged returns a stream that drops elements equal to the element right before them.
func DistinctUntilChanged[T comparable](s *Stream[T]) *Stream[T] {
	return DistinctUntilChangedFunc(s, func(a T, b T) bool {
		return a == b
	})
}

// DistinctUntilChangedFunc is like DistinctUntilChanged, but compares elements using equal.
func DistinctUntilChangedFunc[T any](s *Stream[T], equal func(a T, b T) bool) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		mu := sync.Mutex{}
		hasPrev := false

		var prev T

		relay(sink, cfg, s, func(elem T) {
			mu.Lock()
			dup := hasPrev && equal(prev, elem)
			prev = elem
			hasPrev = true
			mu.Unlock()

			if dup {
				return
			}

			sink.Emit(elem)
		})
	})
}

// Buffer returns a stream that collects the elements of s into batches of size capacity.
// When s fulfills, a partial batch is emitted before the new stream fulfills.
// Buffer panics if capacity is less than 1.
func Buffer[T any](s *Stream[T], capacity int) *Stream[[]T] {
	if capacity < 1 {
		panic("gostreams: buffer capacity must be at least 1")
	}

	return New(func(sink Sink[[]T], cfg *Configure) {
		mu := sync.Mutex{}
		batch := make([]T, 0, capacity)

		follow(cfg, s, func(elem T) {
			mu.Lock()

			batch = append(batch, elem)
			if len(batch) < capacity {
				mu.Unlock()
				return
			}

			full := batch
			batch = make([]T, 0, capacity)

			mu.Unlock()

			sink.Emit(full)
		}, func(o Outcome) {
			if o.Fulfilled() {
				mu.Lock()
				partial := batch
				batch = nil
				mu.Unlock()

				if len(partial) > 0 {
					sink.Emit(partial)
				}
			}

			sink.Settle(o)
		})
	})
}

// Catch returns a stream that mirrors s. If s rejects, handler is called with the error,
// and the stream it returns takes the place of s: its elements and settlement are forwarded instead.
// Cancellation of s is not caught.
func Catch[T any](s *Stream[T], handler func(err error) *Stream[T]) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		ups := &upstreams{}
		cfg.Chain(ups)

		removeS := ups.add(s)

		s.Subscribe(func(elem T) {
			sink.Emit(elem)
		}, func(o Outcome) {
			removeS()

			if o.State != Rejected || sink.Settled() {
				sink.Settle(o)
				return
			}

			recovery := handler(o.Err)

			ups.add(recovery)

			recovery.Subscribe(func(elem T) {
				sink.Emit(elem)
			}, sink.Settle)
		})
	})
}

// Branch returns a stream that mirrors s, without propagating pause or cancellation to s.
// Cancelling the returned stream only stops it from receiving elements, so several branches
// can consume one shared upstream independently.
// Resuming the branch resumes s.
func Branch[T any](s *Stream[T]) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		sub := s.Subscribe(func(elem T) {
			sink.Emit(elem)
		}, sink.Settle)

		cfg.OnResume(s.Resume)
		cfg.OnCancel(func(error) {
			sub.Detach()
		})
	})
}

// TakeUntil returns a stream that mirrors s until signal emits its first element or settles.
// The returned stream is then cancelled without a reason, which cancels s.
// signal itself is never paused or cancelled by the returned stream.
func TakeUntil[T any, S any](s *Stream[T], signal *Stream[S]) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		stop := func() {
			sink.Cancel(nil)
		}

		sigSub := signal.Subscribe(func(S) {
			stop()
		}, func(Outcome) {
			stop()
		})

		cfg.OnCancel(func(error) {
			sigSub.Detach()
		})

		if sink.Settled() {
			s.Cancel(nil)
			return
		}

		follow(cfg, s, func(elem T) {
			sink.Emit(elem)
		}, func(o Outcome) {
			sigSub.Detach()
			sink.Settle(o)
		})
	})
}
