package gostreams

import "strconv"

// State is the lifecycle state of a stream.
type State int32

const (
	// Paused is the initial state. Emissions are dropped while paused.
	Paused State = iota

	// Running streams deliver emitted elements to their subscribers.
	Running

	// Fulfilled streams have completed successfully.
	Fulfilled

	// Rejected streams have failed with an error.
	Rejected

	// Cancelled streams were stopped on purpose, optionally with a reason.
	Cancelled
)

// Outcome describes how a stream settled.
type Outcome struct {
	// State is one of Fulfilled, Rejected, or Cancelled.
	State State

	// Err is the rejection error, or the cancellation reason (which may be nil).
	Err error
}

// Terminal returns true if s is one of the settled states.
func (s State) Terminal() bool {
	return s == Fulfilled || s == Rejected || s == Cancelled
}

// CanTransition returns true if a stream in state s may move to state to.
func (s State) CanTransition(to State) bool {
	switch s {
	case Paused:
		return to != Paused

	case Running:
		return to != Running

	default:
		return false
	}
}

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Running:
		return "running"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	case Cancelled:
		return "cancelled"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Fulfilled returns true if the stream completed successfully.
func (o Outcome) Fulfilled() bool {
	return o.State == Fulfilled
}

// Result returns nil for a fulfilled outcome, the error for a rejected one,
// and the cancellation reason (or ErrCancelled if there is none) for a cancelled one.
func (o Outcome) Result() error {
	switch o.State {
	case Fulfilled:
		return nil

	case Cancelled:
		if o.Err == nil {
			return ErrCancelled
		}

		return o.Err

	default:
		return o.Err
	}
}
