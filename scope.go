package gostreams

import "sync"

// Scope owns streams and subscriptions, and cancels all of them when it is closed.
// It takes the place of cancelling a stream when its owner goes away:
// an owner holds a Scope and closes it, for example with defer, when it is done.
//
// The zero value is ready to use.
type Scope struct {
	mu sync.Mutex

	owned  []Canceller
	closed bool
}

// Canceller is anything a Scope can own. *Stream and *Subscription are Cancellers.
type Canceller interface {
	Cancel(reason error)
}

// Own adds l to the scope. If the scope is already closed, l is cancelled right away.
func (sc *Scope) Own(l Canceller) {
	sc.mu.Lock()

	if sc.closed {
		sc.mu.Unlock()
		l.Cancel(nil)

		return
	}

	sc.owned = append(sc.owned, l)

	sc.mu.Unlock()
}

// Close cancels everything the scope owns, most recently added first.
// Close is idempotent and always returns nil.
func (sc *Scope) Close() error {
	sc.mu.Lock()

	owned := sc.owned
	sc.owned = nil
	sc.closed = true

	sc.mu.Unlock()

	for i := len(owned) - 1; i >= 0; i-- {
		owned[i].Cancel(nil)
	}

	return nil
}

// Subscribe subscribes to s, and adds the subscribed stream to sc.
func Subscribe[T any](sc *Scope, s *Stream[T], onValue func(T), onSettle func(Outcome)) *Subscription {
	sc.Own(s)
	return s.Subscribe(onValue, onSettle)
}
