package gostreams

import "sync"

// Lifecycle is the set of commands that flow upstream through a stream graph.
// *Stream implements Lifecycle.
type Lifecycle interface {
	Pause()
	Resume()
	Cancel(reason error)
}

// Configure holds the lifecycle hooks of a stream.
// Hooks are chained: registering a hook never replaces one registered earlier,
// and hooks run in registration order.
// Once the stream has settled, all hooks are dropped and further registrations are ignored.
type Configure struct {
	mu sync.Mutex

	sealed bool

	onPause  []func()
	onResume []func()
	onCancel []func(reason error)
}

// OnPause registers f to be called whenever the stream enters Paused from Running.
func (c *Configure) OnPause(f func()) {
	c.register(func() {
		c.onPause = append(c.onPause, f)
	})
}

// OnResume registers f to be called whenever the stream enters Running,
// including the first time, after the stream's init function has returned.
func (c *Configure) OnResume(f func()) {
	c.register(func() {
		c.onResume = append(c.onResume, f)
	})
}

// OnCancel registers f to be called when the stream is cancelled explicitly.
// It is not called when the stream fulfills or rejects.
func (c *Configure) OnCancel(f func(reason error)) {
	c.register(func() {
		c.onCancel = append(c.onCancel, f)
	})
}

// Chain forwards pause, resume, and cancel commands to upstream.
func (c *Configure) Chain(upstream Lifecycle) {
	c.OnPause(upstream.Pause)
	c.OnResume(upstream.Resume)
	c.OnCancel(upstream.Cancel)
}

func (c *Configure) register(add func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return
	}

	add()
}

func (c *Configure) pause() {
	c.mu.Lock()
	hooks := c.onPause
	c.mu.Unlock()

	for _, f := range hooks {
		f()
	}
}

func (c *Configure) resume() {
	c.mu.Lock()
	hooks := c.onResume
	c.mu.Unlock()

	for _, f := range hooks {
		f()
	}
}

// seal makes the hooks inert and returns the cancel hooks registered so far.
func (c *Configure) seal() []func(reason error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hooks := c.onCancel

	c.sealed = true
	c.onPause = nil
	c.onResume = nil
	c.onCancel = nil

	return hooks
}
