package gostreams

import (
	"errors"
	"fmt"
)

// ErrCancelled is reported by terminal operations for a stream that was cancelled without a reason.
var ErrCancelled = errors.New("stream cancelled")

// ErrLimitReached is the cancellation reason Take uses to stop its upstream
// once the maximum number of elements has been received.
var ErrLimitReached = errors.New("limit reached")

// ErrTimeout is the error a stream created by Timeout rejects with.
var ErrTimeout = errors.New("stream timed out")

// ErrExecutorStopped is the cancellation reason ObserveOn uses when its executor refuses an element.
var ErrExecutorStopped = errors.New("executor stopped")

// ErrShortCircuit is a generic error used to stop a stream early without reporting a failure.
var ErrShortCircuit = errors.New("short circuit")

// A DuplicateKeyError is used to cancel a stream to indicate that
// a key could not be added to a map because it already exists.
type DuplicateKeyError[T any, K comparable] struct {
	// Element is the upstream stream's element that caused the error.
	Element T

	// Key is the key that was already in the map.
	Key K
}

// Error implements error.
func (e *DuplicateKeyError[T, K]) Error() string {
	return fmt.Sprintf("duplicate key: %v", e.Key)
}
