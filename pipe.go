package gostreams

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Operator turns a stream into another stream. Combinators that take a single stream
// can be expressed as operators, and chained using Pipe and Then.
type Operator[T any, U any] func(s *Stream[T]) *Stream[U]

// Pipe applies ops to s, in order.
func Pipe[T any](s *Stream[T], ops ...Operator[T, T]) *Stream[T] {
	for _, op := range ops {
		s = op(s)
	}

	return s
}

// Then returns an operator that applies first, then second.
func Then[T any, U any, V any](first Operator[T, U], second Operator[U, V]) Operator[T, V] {
	return func(s *Stream[T]) *Stream[V] {
		return second(first(s))
	}
}

// Apply returns a producer that applies op to every stream prod returns.
func Apply[T any, U any](prod Producer[T], op Operator[T, U]) Producer[U] {
	return func() *Stream[U] {
		return op(prod())
	}
}

// MapOp returns Map as an operator.
func MapOp[T any, U any](mapp MapperFunc[T, U]) Operator[T, U] {
	return func(s *Stream[T]) *Stream[U] {
		return Map(s, mapp)
	}
}

// FilterOp returns Filter as an operator.
func FilterOp[T any](filter PredicateFunc[T]) Operator[T, T] {
	return func(s *Stream[T]) *Stream[T] {
		return Filter(s, filter)
	}
}

// TakeOp returns Take as an operator.
func TakeOp[T any](max uint64) Operator[T, T] {
	return func(s *Stream[T]) *Stream[T] {
		return Take(s, max)
	}
}

// SkipOp returns Skip as an operator.
func SkipOp[T any](num uint64) Operator[T, T] {
	return func(s *Stream[T]) *Stream[T] {
		return Skip(s, num)
	}
}

// DistinctOp returns Distinct as an operator.
func DistinctOp[T comparable]() Operator[T, T] {
	return Distinct[T]
}

// BranchOp returns Branch as an operator.
func BranchOp[T any]() Operator[T, T] {
	return Branch[T]
}

// DebounceOp returns Debounce as an operator.
func DebounceOp[T any](interval time.Duration, clk clock.Clock) Operator[T, T] {
	return func(s *Stream[T]) *Stream[T] {
		return Debounce(s, interval, clk)
	}
}
