package gostreams

// Sink is handed to a stream's InitFunc to deliver elements and the settlement.
// All methods are no-ops once the stream has settled.
type Sink[T any] struct {
	s *Stream[T]
}

// Emit delivers elem to the stream's subscribers, in subscription order.
// It returns false if elem was dropped because the stream is not Running.
func (k Sink[T]) Emit(elem T) bool {
	return k.s.emit(elem)
}

// Fulfill settles the stream successfully.
func (k Sink[T]) Fulfill() {
	k.s.settle(Fulfilled, nil)
}

// FulfillWith emits elem as the final element, then settles the stream successfully.
func (k Sink[T]) FulfillWith(elem T) {
	k.s.emit(elem)
	k.s.settle(Fulfilled, nil)
}

// Reject settles the stream with err.
func (k Sink[T]) Reject(err error) {
	k.s.settle(Rejected, err)
}

// Cancel settles the stream as Cancelled, calling its cancel hooks.
func (k Sink[T]) Cancel(reason error) {
	k.s.Cancel(reason)
}

// Settle settles the stream the same way as o.
func (k Sink[T]) Settle(o Outcome) {
	switch o.State {
	case Fulfilled:
		k.Fulfill()

	case Rejected:
		k.Reject(o.Err)

	case Cancelled:
		k.Cancel(o.Err)
	}
}

// Running returns true if elements emitted now would be delivered.
func (k Sink[T]) Running() bool {
	return k.s.State() == Running
}

// Settled returns true if the stream has settled.
func (k Sink[T]) Settled() bool {
	return k.s.State().Terminal()
}

// Subscription is the handle returned by Stream.Subscribe.
type Subscription struct {
	stream Lifecycle
	detach func()
}

// Detach stops delivering elements and the settlement to the subscription's callbacks.
// The stream itself is not affected.
func (s *Subscription) Detach() {
	if s.detach != nil {
		s.detach()
	}
}

// Cancel cancels the subscribed stream, which in turn cancels its upstream chain.
func (s *Subscription) Cancel(reason error) {
	s.stream.Cancel(reason)
}

// Close cancels the subscribed stream without a reason.
func (s *Subscription) Close() error {
	s.Cancel(nil)
	return nil
}
