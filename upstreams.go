package gostreams

import (
	"sync"

	"golang.org/x/exp/slices"
)

// upstreams is the set of streams a combinator currently consumes.
// Chaining a stream's Configure to it forwards lifecycle commands to every live upstream,
// which is how combinators that switch or multiplex inputs keep propagating pause, resume, and cancel.
type upstreams struct {
	mu sync.Mutex

	live   []upstream
	nextID uint64

	cancelled bool
	reason    error
}

type upstream struct {
	id uint64
	l  Lifecycle
}

// add starts tracking l and returns a function that stops tracking it.
// If the set was already cancelled, l is cancelled right away.
func (u *upstreams) add(l Lifecycle) (remove func()) {
	u.mu.Lock()

	if u.cancelled {
		reason := u.reason
		u.mu.Unlock()

		l.Cancel(reason)

		return func() {}
	}

	id := u.nextID
	u.nextID++
	u.live = append(u.live, upstream{id: id, l: l})

	u.mu.Unlock()

	return func() {
		u.mu.Lock()
		defer u.mu.Unlock()

		i := slices.IndexFunc(u.live, func(up upstream) bool {
			return up.id == id
		})
		if i >= 0 {
			u.live = append(u.live[:i:i], u.live[i+1:]...)
		}
	}
}

func (u *upstreams) snapshot() []upstream {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.live
}

// Pause implements Lifecycle.
func (u *upstreams) Pause() {
	for _, up := range u.snapshot() {
		up.l.Pause()
	}
}

// Resume implements Lifecycle.
func (u *upstreams) Resume() {
	for _, up := range u.snapshot() {
		up.l.Resume()
	}
}

// Cancel implements Lifecycle. Every upstream added afterwards is cancelled immediately.
func (u *upstreams) Cancel(reason error) {
	u.mu.Lock()

	live := u.live

	u.cancelled = true
	u.reason = reason
	u.live = nil

	u.mu.Unlock()

	for _, up := range live {
		up.l.Cancel(reason)
	}
}
