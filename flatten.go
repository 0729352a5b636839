package gostreams

import (
	"sync"
	"sync/atomic"
)

// flattener holds the state shared by the flattening combinators.
type flattener[U any] struct {
	mu sync.Mutex

	sink Sink[U]
	ups  *upstreams

	outerDone bool
}

func newFlattener[U any](sink Sink[U], cfg *Configure) *flattener[U] {
	ups := &upstreams{}
	cfg.Chain(ups)

	return &flattener[U]{
		sink: sink,
		ups:  ups,
	}
}

func (f *flattener[U]) emit(elem U) {
	f.sink.Emit(elem)
}

// fail settles the flattened stream like o, and cancels all upstreams.
func (f *flattener[U]) fail(o Outcome) {
	f.sink.Settle(o)
	f.ups.Cancel(o.Err)
}

// FlatMap returns a stream that calls mapp for each element emitted by s, mapping it to an inner stream,
// and emits the elements of all inner streams as they arrive.
// Inner streams are started immediately and run concurrently with each other.
// It fulfills once s and all inner streams have fulfilled.
// If any of them rejects or is cancelled, the new stream settles the same way and cancels the rest.
func FlatMap[T any, U any](s *Stream[T], mapp MapperFunc[T, *Stream[U]]) *Stream[U] {
	return New(func(sink Sink[U], cfg *Configure) {
		f := newFlattener(sink, cfg)
		index := atomic.Uint64{}
		active := 0

		maybeFulfill := func() {
			f.mu.Lock()
			done := f.outerDone && active == 0
			f.mu.Unlock()

			if done {
				sink.Fulfill()
			}
		}

		f.ups.add(s)

		s.Subscribe(func(elem T) {
			inner := mapp(sink.Cancel, elem, index.Add(1)-1)

			if sink.Settled() {
				return
			}

			f.mu.Lock()
			active++
			f.mu.Unlock()

			remove := f.ups.add(inner)

			inner.Subscribe(f.emit, func(o Outcome) {
				remove()

				if !o.Fulfilled() {
					f.fail(o)
					return
				}

				f.mu.Lock()
				active--
				f.mu.Unlock()

				maybeFulfill()
			})
		}, func(o Outcome) {
			if !o.Fulfilled() {
				f.fail(o)
				return
			}

			f.mu.Lock()
			f.outerDone = true
			f.mu.Unlock()

			maybeFulfill()
		})
	})
}

// ConcatMap is like FlatMap, but runs inner streams strictly one at a time, in order.
// Inner streams created while another one is running are queued, and only started once
// all inner streams before them have fulfilled.
func ConcatMap[T any, U any](s *Stream[T], mapp MapperFunc[T, *Stream[U]]) *Stream[U] {
	return New(func(sink Sink[U], cfg *Configure) {
		f := newFlattener(sink, cfg)
		index := atomic.Uint64{}
		running := false
		queue := []*Stream[U]{}

		cancelQueued := func(reason error) {
			f.mu.Lock()
			queued := queue
			queue = nil
			f.mu.Unlock()

			for _, inner := range queued {
				inner.Cancel(reason)
			}
		}

		cfg.OnCancel(cancelQueued)

		var startNext func()

		startNext = func() {
			f.mu.Lock()

			if running || len(queue) == 0 {
				done := !running && f.outerDone
				f.mu.Unlock()

				if done {
					sink.Fulfill()
				}

				return
			}

			inner := queue[0]
			queue = queue[1:]
			running = true

			f.mu.Unlock()

			remove := f.ups.add(inner)

			inner.Subscribe(f.emit, func(o Outcome) {
				remove()

				if !o.Fulfilled() {
					cancelQueued(o.Err)
					f.fail(o)

					return
				}

				f.mu.Lock()
				running = false
				f.mu.Unlock()

				startNext()
			})
		}

		f.ups.add(s)

		s.Subscribe(func(elem T) {
			inner := mapp(sink.Cancel, elem, index.Add(1)-1)

			if sink.Settled() {
				return
			}

			f.mu.Lock()
			queue = append(queue, inner)
			f.mu.Unlock()

			startNext()
		}, func(o Outcome) {
			if !o.Fulfilled() {
				cancelQueued(o.Err)
				f.fail(o)

				return
			}

			f.mu.Lock()
			f.outerDone = true
			f.mu.Unlock()

			startNext()
		})
	})
}

// SwitchMap is like FlatMap, but only the most recent inner stream is live:
// whenever s emits, the previous inner stream is cancelled and its elements are no longer emitted.
// It fulfills once s and the latest inner stream have fulfilled.
func SwitchMap[T any, U any](s *Stream[T], mapp MapperFunc[T, *Stream[U]]) *Stream[U] {
	return New(func(sink Sink[U], cfg *Configure) {
		f := newFlattener(sink, cfg)
		index := atomic.Uint64{}
		gen := uint64(0)
		innerLive := false

		var current *Stream[U]

		maybeFulfill := func() {
			f.mu.Lock()
			done := f.outerDone && !innerLive
			f.mu.Unlock()

			if done {
				sink.Fulfill()
			}
		}

		f.ups.add(s)

		s.Subscribe(func(elem T) {
			inner := mapp(sink.Cancel, elem, index.Add(1)-1)

			if sink.Settled() {
				return
			}

			f.mu.Lock()
			gen++
			myGen := gen
			prev := current
			current = inner
			innerLive = true
			f.mu.Unlock()

			if prev != nil {
				prev.Cancel(nil)
			}

			stale := func() bool {
				f.mu.Lock()
				defer f.mu.Unlock()

				return myGen != gen
			}

			remove := f.ups.add(inner)

			inner.Subscribe(func(elem U) {
				if stale() {
					return
				}

				sink.Emit(elem)
			}, func(o Outcome) {
				remove()

				f.mu.Lock()
				isStale := myGen != gen
				if !isStale && o.Fulfilled() {
					innerLive = false
				}
				f.mu.Unlock()

				if isStale {
					return
				}

				if !o.Fulfilled() {
					f.fail(o)
					return
				}

				maybeFulfill()
			})
		}, func(o Outcome) {
			if !o.Fulfilled() {
				f.fail(o)
				return
			}

			f.mu.Lock()
			f.outerDone = true
			f.mu.Unlock()

			maybeFulfill()
		})
	})
}
