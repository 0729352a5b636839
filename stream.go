package gostreams

import (
	"sync"

	"golang.org/x/exp/slices"
)

// InitFunc starts a stream. It is called at most once, when the stream first enters Running.
// Elements and the settlement are delivered through sink; lifecycle hooks are registered on cfg.
type InitFunc[T any] func(sink Sink[T], cfg *Configure)

// Stream is a lazy, single-use, push-based sequence of elements that settles exactly once:
// it is either fulfilled, rejected with an error, or cancelled.
//
// A new stream is Paused, and its InitFunc has not been called yet.
// The first call to Subscribe (or an explicit Resume) starts it.
//
// All methods are safe for concurrent use. Callbacks are never invoked while
// an internal lock is held, so they may call back into the same stream.
type Stream[T any] struct {
	mu sync.Mutex

	state   State
	outcome Outcome

	init InitFunc[T]

	subs   []*subscriber[T]
	nextID uint64

	cfg  Configure
	done chan struct{}

	// hooked is the state whose hooks ran last. It is stale while init runs.
	// Only the goroutine that set syncing runs hooks.
	hooked      State
	hookedStale bool
	syncing     bool
}

type subscriber[T any] struct {
	id       uint64
	onValue  func(T)
	onSettle func(Outcome)
}

// New returns a new stream in the Paused state. init is called lazily, see InitFunc.
// New panics if init is nil.
func New[T any](init InitFunc[T]) *Stream[T] {
	if init == nil {
		panic("gostreams: nil init function")
	}

	return &Stream[T]{
		init: init,
		done: make(chan struct{}),
	}
}

// State returns the current lifecycle state of s.
func (s *Stream[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Outcome returns how s settled. It returns false if s has not settled yet.
func (s *Stream[T]) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.outcome, s.state.Terminal()
}

// Done returns a channel that is closed once s has settled.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Subscribe registers onValue to receive every element emitted from now on,
// and onSettle to be called once when s settles. Either may be nil.
// If s has already settled, onSettle is called immediately.
// Subscribing resumes s if it has never been started.
func (s *Stream[T]) Subscribe(onValue func(T), onSettle func(Outcome)) *Subscription {
	s.mu.Lock()

	if s.state.Terminal() {
		outcome := s.outcome
		s.mu.Unlock()

		if onSettle != nil {
			onSettle(outcome)
		}

		return &Subscription{stream: s}
	}

	sub := &subscriber[T]{
		id:       s.nextID,
		onValue:  onValue,
		onSettle: onSettle,
	}
	s.nextID++
	s.subs = append(s.subs, sub)

	start := s.init != nil

	s.mu.Unlock()

	if start {
		s.Resume()
	}

	return &Subscription{
		stream: s,
		detach: func() {
			s.detach(sub.id)
		},
	}
}

// Resume moves s from Paused to Running. The first time, it calls the stream's InitFunc.
// Resume is a no-op in any other state.
func (s *Stream[T]) Resume() {
	s.mu.Lock()

	if s.state != Paused {
		s.mu.Unlock()
		return
	}

	s.state = Running

	init := s.init
	s.init = nil

	if init != nil {
		s.hookedStale = true
	}

	s.mu.Unlock()

	if init != nil {
		init(Sink[T]{s: s}, &s.cfg)
	}

	s.runHooks()
}

// Pause moves s from Running to Paused. Elements emitted while paused are dropped.
// Pause is a no-op in any other state.
// If hooks of s are already running, for example on another goroutine, its pause hooks run there instead.
func (s *Stream[T]) Pause() {
	s.mu.Lock()

	if s.state != Running {
		s.mu.Unlock()
		return
	}

	s.state = Paused

	s.mu.Unlock()

	s.runHooks()
}

// runHooks runs pause or resume hooks until the hooks that ran last match the current state.
// If another call is already running hooks, it returns right away and that call picks up the change.
// Hooks never run concurrently, and the last state change decides the last hooks run.
func (s *Stream[T]) runHooks() {
	s.mu.Lock()

	if s.syncing {
		s.mu.Unlock()
		return
	}

	s.syncing = true

	for {
		want := s.state

		if want.Terminal() || (want == s.hooked && !s.hookedStale) {
			s.syncing = false
			s.mu.Unlock()

			return
		}

		s.hooked = want
		s.hookedStale = false

		s.mu.Unlock()

		if want == Running {
			s.cfg.resume()
		} else {
			s.cfg.pause()
		}

		s.mu.Lock()
	}
}

// Cancel settles s as Cancelled with the given reason, which may be nil,
// and calls the stream's cancel hooks, which usually cancel its upstream streams.
// Cancel is a no-op if s has already settled.
func (s *Stream[T]) Cancel(reason error) {
	s.settle(Cancelled, reason)
}

// Close cancels s without a reason. It is meant for owners that release a stream before it settles.
func (s *Stream[T]) Close() error {
	s.Cancel(nil)
	return nil
}

func (s *Stream[T]) emit(v T) bool {
	s.mu.Lock()

	if s.state != Running {
		s.mu.Unlock()
		return false
	}

	subs := s.subs

	s.mu.Unlock()

	for _, sub := range subs {
		if sub.onValue != nil && s.attached(sub.id) {
			sub.onValue(v)
		}
	}

	return true
}

func (s *Stream[T]) settle(state State, err error) bool {
	s.mu.Lock()

	if !s.state.CanTransition(state) || !state.Terminal() {
		s.mu.Unlock()
		return false
	}

	outcome := Outcome{State: state, Err: err}

	s.state = state
	s.outcome = outcome
	s.init = nil

	subs := s.subs
	s.subs = nil

	s.mu.Unlock()

	cancelHooks := s.cfg.seal()

	close(s.done)

	if state == Cancelled {
		for _, f := range cancelHooks {
			f(err)
		}
	}

	for _, sub := range subs {
		if sub.onSettle != nil {
			sub.onSettle(outcome)
		}
	}

	return true
}

func (s *Stream[T]) attached(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.IndexFunc(s.subs, func(sub *subscriber[T]) bool {
		return sub.id == id
	}) >= 0
}

func (s *Stream[T]) detach(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.subs, func(sub *subscriber[T]) bool {
		return sub.id == id
	})
	if i < 0 {
		return
	}

	// emit may be iterating over the old slice, so never modify it in place.
	s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
}
