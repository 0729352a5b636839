// Package gostreams provides push-based reactive streams and a set of combinators on them.
//
// A Stream is created Paused by New, from an InitFunc that receives a Sink to emit elements and settle
// the stream, and a Configure record to hook into pause, resume, and cancellation.
// Streams are cold: the InitFunc is only called when the stream is first subscribed to (or resumed).
// Every stream settles exactly once, by fulfilling, rejecting with an error, or being cancelled.
//
// Combinators such as Map, Filter, Take, Merge, Zip, FlatMap, or Debounce take one or more streams
// and return a new one. Subscribing to the new stream starts its upstream streams, and lifecycle
// commands flow back upstream: pausing or cancelling a stream pauses or cancels the streams it consumes.
// Branch decouples a consumer from its upstream, so that several consumers can share it.
//
// Emission, subscription, and settlement are plain synchronous function calls. Nothing in this package
// starts goroutines on its own, except FromChannel, SerialQueue, and the timers of the time-based
// combinators, which run on a caller-supplied clock. All types are safe for concurrent use, but the
// order of elements is only defined for elements emitted from a single goroutine.
//
// Streams are single-use. A Producer returns a fresh stream on each call, and is what Replay, Retry,
// and Repeat work with.
//
// Terminal operations such as Each, Reduce, or AnyMatch subscribe to a stream and wait for it to settle.
// An owner that releases a stream before it settles must cancel it, for example using a Scope.
package gostreams
