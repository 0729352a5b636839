package gostreams

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	is := is.New(t)

	a, sinkA := source[int]()
	b, sinkB := source[int]()

	r := record(Merge(a, b))

	sinkA.Emit(1)
	sinkB.Emit(2)
	sinkA.Emit(3)
	sinkA.Fulfill()

	_, ok := r.settled()
	is.True(!ok)

	sinkB.Emit(4)
	sinkB.Fulfill()

	is.Equal(r.values(), []int{1, 2, 3, 4})

	o, ok := r.settled()
	is.True(ok)
	is.True(o.Fulfilled())
}

func TestMerge_Rejected(t *testing.T) {
	is := is.New(t)

	a, sinkA := source[int]()
	b, _ := source[int]()

	r := record(Merge(a, b))

	sinkA.Emit(1)
	sinkA.Reject(errBoom)

	o, _ := r.settled()
	is.Equal(o, Outcome{State: Rejected, Err: errBoom})
	is.Equal(b.State(), Cancelled)
	is.Equal(r.values(), []int{1})
}

func TestMerge_CancelReachesAll(t *testing.T) {
	is := is.New(t)

	a, _ := source[int]()
	b, _ := source[int]()

	merged := Merge(a, b)
	merged.Subscribe(nil, nil)
	merged.Cancel(errBoom)

	is.Equal(a.State(), Cancelled)
	is.Equal(b.State(), Cancelled)
}

func TestMerge_Empty(t *testing.T) {
	is := is.New(t)

	count, err := Count(context.Background(), Merge[int]())

	is.NoErr(err)
	is.Equal(count, uint64(0))
}

func TestConcat(t *testing.T) {
	is := is.New(t)

	result, err := ReduceSlice(context.Background(), Concat(Sequence(1, 2), Empty[int](), Sequence(3)))

	is.NoErr(err)
	is.Equal(result, []int{1, 2, 3})
}

func TestConcat_StartsInOrder(t *testing.T) {
	is := is.New(t)

	a, sinkA := source[int]()
	b, sinkB := source[int]()

	r := record(Concat(a, b))

	is.Equal(a.State(), Running)
	is.Equal(b.State(), Paused)

	sinkA.Emit(1)
	sinkA.Fulfill()

	is.Equal(b.State(), Running)

	sinkB.Emit(2)
	sinkB.Fulfill()

	is.Equal(r.values(), []int{1, 2})

	o, _ := r.settled()
	is.True(o.Fulfilled())
}

func TestConcat_AbortsPending(t *testing.T) {
	is := is.New(t)

	a, sinkA := source[int]()
	b, _ := source[int]()
	c, _ := source[int]()

	r := record(Concat(a, b, c))

	sinkA.Reject(errBoom)

	o, _ := r.settled()
	is.Equal(o, Outcome{State: Rejected, Err: errBoom})
	is.Equal(b.State(), Cancelled)
	is.Equal(c.State(), Cancelled)
}

func TestConcat_Cancel(t *testing.T) {
	is := is.New(t)

	a, _ := source[int]()
	b, _ := source[int]()

	s := Concat(a, b)
	s.Subscribe(nil, nil)
	s.Cancel(nil)

	is.Equal(a.State(), Cancelled)
	is.Equal(b.State(), Cancelled)
}

func TestCombineLatest(t *testing.T) {
	is := is.New(t)

	a, sinkA := source[int]()
	b, sinkB := source[int]()

	r := record(CombineLatest(a, b))

	sinkA.Emit(1)
	sinkA.Emit(2)
	sinkB.Emit(10)
	sinkA.Emit(3)
	sinkB.Emit(20)

	is.Equal(r.values(), [][]int{{2, 10}, {3, 10}, {3, 20}})

	sinkA.Fulfill()
	sinkB.Emit(30)
	sinkB.Fulfill()

	is.Equal(r.values()[3], []int{3, 30})

	o, _ := r.settled()
	is.True(o.Fulfilled())
}

func TestCombineLatest_FulfilledWithoutEmitting(t *testing.T) {
	is := is.New(t)

	a, sinkA := source[int]()
	b, _ := source[int]()

	r := record(CombineLatest(a, b))

	sinkA.Emit(1)

	is.Equal(len(r.values()), 0)

	result, err := ReduceSlice(context.Background(), CombineLatest(Sequence(1), Empty[int]()))

	is.NoErr(err)
	is.Equal(len(result), 0)
}

func TestCombineLatest_TooFewStreams(t *testing.T) {
	require.Panics(t, func() {
		CombineLatest(Sequence(1))
	})
}

func TestZip(t *testing.T) {
	is := is.New(t)

	a := Sequence(1, 2, 3)
	b := Sequence(10, 20)

	result, err := ReduceSlice(context.Background(), Zip(a, b))

	is.NoErr(err)
	is.Equal(result, [][]int{{1, 10}, {2, 20}})
}

func TestZip_Interleaved(t *testing.T) {
	is := is.New(t)

	a, sinkA := source[int]()
	b, sinkB := source[int]()

	r := record(Zip(a, b))

	sinkA.Emit(1)
	sinkA.Emit(2)

	is.Equal(len(r.values()), 0)

	sinkB.Emit(10)
	sinkB.Fulfill()

	is.Equal(r.values(), [][]int{{1, 10}})

	o, _ := r.settled()
	is.True(o.Fulfilled())

	ao, _ := a.Outcome()
	is.True(errors.Is(ao.Err, ErrShortCircuit))
}

func TestZip_TooFewStreams(t *testing.T) {
	require.Panics(t, func() {
		Zip(Sequence(1))
	})
}

func TestZip2(t *testing.T) {
	is := is.New(t)

	pairs := Zip2(Sequence(1, 2, 3), Sequence("a", "b"))

	result, err := ReduceSlice(context.Background(), pairs)

	is.NoErr(err)
	is.Equal(result, []Pair[int, string]{
		{First: 1, Second: "a"},
		{First: 2, Second: "b"},
	})
}

func TestCombineLatest2(t *testing.T) {
	is := is.New(t)

	a, sinkA := source[int]()
	b, sinkB := source[string]()

	r := record(CombineLatest2(a, b))

	sinkA.Emit(1)
	sinkB.Emit("a")
	sinkA.Emit(2)

	is.Equal(r.values(), []Pair[int, string]{
		{First: 1, Second: "a"},
		{First: 2, Second: "a"},
	})
}
