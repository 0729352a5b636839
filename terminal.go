package gostreams

import (
	"context"
	"errors"
	"sync"
	"weak"
)

// ConsumerFunc consumes element elem.
// The index is the 0-based index of elem, in the order emitted by the upstream stream.
// Calling cancel cancels the consumed stream.
type ConsumerFunc[T any] func(cancel context.CancelCauseFunc, elem T, index uint64)

// AccumulatorFunc folds element elem into the accumulator acc, returning acc, or a new accumulator.
// The index is the 0-based index of elem, in the order emitted by the upstream stream.
type AccumulatorFunc[T any, A any] func(cancel context.CancelCauseFunc, elem T, index uint64, acc A) A

// React subscribes onValue to s, starting s and its whole upstream chain.
// Cancelling the returned subscription cancels the chain.
func React[T any](s *Stream[T], onValue func(T)) *Subscription {
	return s.Subscribe(onValue, nil)
}

// BindTo calls setter with every element of s. The binding stops when s settles,
// or when the returned subscription is detached or cancelled.
func BindTo[T any](s *Stream[T], setter func(T)) *Subscription {
	return s.Subscribe(setter, nil)
}

// BindToOwner calls set with owner and every element of s, holding owner only weakly.
// Once owner has been garbage collected, the next element cancels s instead.
// set must not capture owner itself, or owner will never be collected.
func BindToOwner[T any, O any](s *Stream[T], owner *O, set func(owner *O, elem T)) *Subscription {
	ref := weak.Make(owner)

	return s.Subscribe(func(elem T) {
		o := ref.Value()
		if o == nil {
			s.Cancel(nil)
			return
		}

		set(o, elem)
	}, nil)
}

// Each calls each for each element emitted by s, and waits until s settles or ctx is done.
// If ctx is done first, s is cancelled with the context's cause.
// Calls to each never overlap, and Each only returns once the last call has returned,
// so each must not make s emit again from within the call.
// It returns nil if s fulfilled, the error if s rejected, and the cancellation reason,
// or ErrCancelled, if s was cancelled. Cancelling with ErrShortCircuit is not reported as an error.
func Each[T any](ctx context.Context, s *Stream[T], each ConsumerFunc[T]) error {
	if contextDone(ctx) {
		s.Cancel(context.Cause(ctx))
	}

	mu := sync.Mutex{}
	index := uint64(0)
	stopped := false

	s.Subscribe(func(elem T) {
		mu.Lock()
		defer mu.Unlock()

		if stopped {
			return
		}

		each(s.Cancel, elem, index)
		index++
	}, nil)

	select {
	case <-s.Done():

	case <-ctx.Done():
		s.Cancel(context.Cause(ctx))
		<-s.Done()
	}

	// wait for a call still running on the emitting goroutine
	mu.Lock()
	stopped = true
	mu.Unlock()

	o, _ := s.Outcome()

	err := o.Result()
	if errors.Is(err, ErrShortCircuit) {
		err = nil
	}

	return err
}

// Reduce calls reduce for each element emitted by s, folding it into accumulator acc, returning the final accumulator.
// If s does not fulfill, it returns the accumulator so far, and the error reported by Each.
func Reduce[T any, A any](ctx context.Context, s *Stream[T], acc A, reduce AccumulatorFunc[T, A]) (A, error) {
	err := Each(ctx, s, func(cancel context.CancelCauseFunc, elem T, index uint64) {
		acc = reduce(cancel, elem, index, acc)
	})

	return acc, err
}

// ReduceSlice collects the elements emitted by s into a slice.
func ReduceSlice[T any](ctx context.Context, s *Stream[T]) ([]T, error) {
	return Reduce(ctx, s, nil, CollectSlice[T]())
}

// AnyMatch returns true as soon as pred returns true for an element emitted by s, that is, an element matches.
// If an element matches, it cancels s using ErrShortCircuit.
// If s does not fulfill otherwise, it returns an undefined result, and the error reported by Each.
func AnyMatch[T any](ctx context.Context, s *Stream[T], pred PredicateFunc[T]) (bool, error) {
	anyMatch := false

	err := Each(ctx, s, func(cancel context.CancelCauseFunc, elem T, index uint64) {
		if !pred(cancel, elem, index) {
			return
		}

		anyMatch = true

		cancel(ErrShortCircuit)
	})

	return anyMatch, err
}

// AllMatch returns true if pred returns true for all elements emitted by s, that is, all elements match.
// If any element does not match, it cancels s using ErrShortCircuit.
// If s does not fulfill otherwise, it returns an undefined result, and the error reported by Each.
func AllMatch[T any](ctx context.Context, s *Stream[T], pred PredicateFunc[T]) (bool, error) {
	allMatch := true

	err := Each(ctx, s, func(cancel context.CancelCauseFunc, elem T, index uint64) {
		if pred(cancel, elem, index) {
			return
		}

		allMatch = false

		cancel(ErrShortCircuit)
	})

	return allMatch, err
}

// Count returns the number of elements emitted by s.
// If s does not fulfill, it returns an undefined result, and the error reported by Each.
func Count[T any](ctx context.Context, s *Stream[T]) (uint64, error) {
	count := uint64(0)

	err := Each(ctx, s, func(_ context.CancelCauseFunc, _ T, _ uint64) {
		count++
	})

	return count, err
}

// First returns the first element emitted by s, then cancels s using ErrShortCircuit.
// ok is false if s fulfilled without emitting.
func First[T any](ctx context.Context, s *Stream[T]) (elem T, ok bool, err error) {
	err = Each(ctx, s, func(cancel context.CancelCauseFunc, e T, _ uint64) {
		if ok {
			return
		}

		elem, ok = e, true

		cancel(ErrShortCircuit)
	})

	return elem, ok, err
}

// contextDone returns true if ctx.Err() != nil.
func contextDone(ctx context.Context) bool {
	return ctx.Err() != nil
}
