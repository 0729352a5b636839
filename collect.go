package gostreams

import "context"

// Accumulators for Reduce and Scan. They run on whatever goroutine the stream emits on,
// so the accumulator value must only be touched through them until the terminal operation returns.

// CollectSlice returns an accumulator that appends every element to a slice.
// A nil slice is a valid starting accumulator.
func CollectSlice[T any]() AccumulatorFunc[T, []T] {
	return func(_ context.CancelCauseFunc, elem T, _ uint64, acc []T) []T {
		return append(acc, elem)
	}
}

// CollectMap returns an accumulator that stores value(elem) under key(elem) in a map.
// A later element with the same key replaces the earlier entry.
// The starting accumulator must be a non-nil map.
func CollectMap[T any, K comparable, V any](key MapperFunc[T, K], value MapperFunc[T, V]) AccumulatorFunc[T, map[K]V] {
	return collectMap(key, value, nil)
}

// CollectMapNoDuplicateKeys is like CollectMap, but the first element whose key is already
// in the map cancels the stream with a *DuplicateKeyError, and the map is left as it was.
func CollectMapNoDuplicateKeys[T any, K comparable, V any](key MapperFunc[T, K], value MapperFunc[T, V]) AccumulatorFunc[T, map[K]V] {
	return collectMap(key, value, func(cancel context.CancelCauseFunc, elem T, k K) {
		cancel(&DuplicateKeyError[T, K]{
			Element: elem,
			Key:     k,
		})
	})
}

// collectMap stores entries, calling onDuplicate instead for taken keys if it is not nil.
func collectMap[T any, K comparable, V any](key MapperFunc[T, K], value MapperFunc[T, V],
	onDuplicate func(cancel context.CancelCauseFunc, elem T, k K),
) AccumulatorFunc[T, map[K]V] {
	return func(cancel context.CancelCauseFunc, elem T, index uint64, acc map[K]V) map[K]V {
		k := key(cancel, elem, index)

		if onDuplicate != nil {
			if _, taken := acc[k]; taken {
				onDuplicate(cancel, elem, k)
				return acc
			}
		}

		acc[k] = value(cancel, elem, index)

		return acc
	}
}

// CollectGroup returns an accumulator that appends value(elem) to the slice stored under key(elem),
// keeping elements of a group in emission order.
func CollectGroup[T any, K comparable, V any](key MapperFunc[T, K], value MapperFunc[T, V]) AccumulatorFunc[T, map[K][]V] {
	return func(cancel context.CancelCauseFunc, elem T, index uint64, acc map[K][]V) map[K][]V {
		k := key(cancel, elem, index)
		acc[k] = append(acc[k], value(cancel, elem, index))

		return acc
	}
}

// CollectPartition is CollectGroup keyed by pred: matching elements end up under true, the rest under false.
func CollectPartition[T any, V any](pred PredicateFunc[T], value MapperFunc[T, V]) AccumulatorFunc[T, map[bool][]V] {
	return CollectGroup(MapperFunc[T, bool](pred), value)
}
