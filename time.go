package gostreams

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Time-based combinators never block. They schedule work on the given clock,
// and emit from whatever goroutine the clock runs timer functions on.
// Use clock.New() for wall-clock time, or a clock.Mock to control time in tests.

// Debounce returns a stream that emits an element of s only once interval has passed
// without s emitting a newer element. Each new element restarts the timer and supersedes
// the pending one.
// When s fulfills, a pending element is emitted right away before the new stream fulfills.
func Debounce[T any](s *Stream[T], interval time.Duration, clk clock.Clock) *Stream[T] {
	checkInterval(interval)

	return New(func(sink Sink[T], cfg *Configure) {
		mu := sync.Mutex{}
		gen := uint64(0)
		hasPending := false

		var (
			pending T
			timer   *clock.Timer
		)

		// takePending must be called with mu held.
		takePending := func() (T, bool) {
			if timer != nil {
				timer.Stop()
				timer = nil
			}

			gen++

			elem, ok := pending, hasPending

			var zero T
			pending = zero
			hasPending = false

			return elem, ok
		}

		cfg.OnCancel(func(error) {
			mu.Lock()
			takePending()
			mu.Unlock()
		})

		follow(cfg, s, func(elem T) {
			mu.Lock()
			defer mu.Unlock()

			takePending()

			myGen := gen
			pending = elem
			hasPending = true

			timer = clk.AfterFunc(interval, func() {
				mu.Lock()

				if myGen != gen {
					mu.Unlock()
					return
				}

				elem, ok := takePending()

				mu.Unlock()

				if ok {
					sink.Emit(elem)
				}
			})
		}, func(o Outcome) {
			mu.Lock()
			elem, ok := takePending()
			mu.Unlock()

			if ok && o.Fulfilled() {
				sink.Emit(elem)
			}

			sink.Settle(o)
		})
	})
}

// Throttle returns a stream that emits an element of s immediately, then drops all elements
// until interval has passed since that emission (leading-edge throttling).
func Throttle[T any](s *Stream[T], interval time.Duration, clk clock.Clock) *Stream[T] {
	checkInterval(interval)

	return New(func(sink Sink[T], cfg *Configure) {
		mu := sync.Mutex{}
		emitted := false

		var last time.Time

		relay(sink, cfg, s, func(elem T) {
			now := clk.Now()

			mu.Lock()

			if emitted && now.Sub(last) < interval {
				mu.Unlock()
				return
			}

			emitted = true
			last = now

			mu.Unlock()

			sink.Emit(elem)
		})
	})
}

// Delay returns a stream that emits each element of s once d has passed since s emitted it.
// When s fulfills, the new stream fulfills after all delayed elements have been emitted.
// Rejection and cancellation are forwarded immediately, dropping delayed elements.
func Delay[T any](s *Stream[T], d time.Duration, clk clock.Clock) *Stream[T] {
	checkInterval(d)

	return New(func(sink Sink[T], cfg *Configure) {
		mu := sync.Mutex{}
		timers := map[uint64]*clock.Timer{}
		nextID := uint64(0)
		upstreamDone := false

		stopAll := func() {
			mu.Lock()
			defer mu.Unlock()

			for id, t := range timers {
				t.Stop()
				delete(timers, id)
			}
		}

		cfg.OnCancel(func(error) {
			stopAll()
		})

		follow(cfg, s, func(elem T) {
			mu.Lock()
			defer mu.Unlock()

			id := nextID
			nextID++

			timers[id] = clk.AfterFunc(d, func() {
				mu.Lock()
				_, ok := timers[id]
				mu.Unlock()

				if !ok {
					return
				}

				// the timer stays registered until its element is delivered,
				// so that fulfilling waits for concurrent deliveries
				sink.Emit(elem)

				mu.Lock()
				delete(timers, id)
				done := upstreamDone && len(timers) == 0
				mu.Unlock()

				if done {
					sink.Fulfill()
				}
			})
		}, func(o Outcome) {
			if !o.Fulfilled() {
				stopAll()
				sink.Settle(o)

				return
			}

			mu.Lock()
			upstreamDone = true
			done := len(timers) == 0
			mu.Unlock()

			if done {
				sink.Fulfill()
			}
		})
	})
}

// Timeout returns a stream that mirrors s, but rejects with ErrTimeout and cancels s
// if s has not settled within d of being started.
func Timeout[T any](s *Stream[T], d time.Duration, clk clock.Clock) *Stream[T] {
	checkInterval(d)

	return New(func(sink Sink[T], cfg *Configure) {
		timer := clk.AfterFunc(d, func() {
			sink.Reject(ErrTimeout)
			s.Cancel(ErrTimeout)
		})

		cfg.OnCancel(func(error) {
			timer.Stop()
		})

		follow(cfg, s, func(elem T) {
			sink.Emit(elem)
		}, func(o Outcome) {
			timer.Stop()
			sink.Settle(o)
		})
	})
}

func checkInterval(d time.Duration) {
	if d < 0 {
		panic("gostreams: negative interval")
	}
}
