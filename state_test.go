package gostreams

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestState_CanTransition(t *testing.T) {
	is := is.New(t)

	all := []State{Paused, Running, Fulfilled, Rejected, Cancelled}

	legal := map[State][]State{
		Paused:  {Running, Fulfilled, Rejected, Cancelled},
		Running: {Paused, Fulfilled, Rejected, Cancelled},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, l := range legal[from] {
				if l == to {
					want = true
				}
			}

			is.Equal(from.CanTransition(to), want) // from -> to
		}
	}
}

func TestState_Terminal(t *testing.T) {
	is := is.New(t)

	is.True(!Paused.Terminal())
	is.True(!Running.Terminal())
	is.True(Fulfilled.Terminal())
	is.True(Rejected.Terminal())
	is.True(Cancelled.Terminal())

	is.Equal(Cancelled.String(), "cancelled")
	is.Equal(State(42).String(), "State(42)")
}

func TestOutcome_Result(t *testing.T) {
	is := is.New(t)

	is.NoErr(Outcome{State: Fulfilled}.Result())
	is.Equal(Outcome{State: Rejected, Err: errBoom}.Result(), errBoom)
	is.Equal(Outcome{State: Cancelled, Err: errBoom}.Result(), errBoom)
	is.True(errors.Is(Outcome{State: Cancelled}.Result(), ErrCancelled))
}
