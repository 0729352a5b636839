package gostreams

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// recorder subscribes to a stream and records everything it receives.
type recorder[T any] struct {
	mu sync.Mutex

	elems   []T
	outcome *Outcome
}

func record[T any](s *Stream[T]) *recorder[T] {
	r := &recorder[T]{}

	s.Subscribe(func(elem T) {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.elems = append(r.elems, elem)
	}, func(o Outcome) {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.outcome = &o
	})

	return r
}

func (r *recorder[T]) values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]T(nil), r.elems...)
}

func (r *recorder[T]) settled() (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.outcome == nil {
		return Outcome{}, false
	}

	return *r.outcome, true
}

// source returns a stream whose sink is handed to the test once the stream has started,
// so the test can drive it by hand.
func source[T any]() (*Stream[T], *Sink[T]) {
	sink := &Sink[T]{}

	s := New(func(k Sink[T], _ *Configure) {
		*sink = k
	})

	return s, sink
}

func TestNew_Lazy(t *testing.T) {
	is := is.New(t)

	calls := 0

	s := New(func(Sink[int], *Configure) {
		calls++
	})

	is.Equal(calls, 0)
	is.Equal(s.State(), Paused)

	s.Subscribe(nil, nil)

	is.Equal(calls, 1)
	is.Equal(s.State(), Running)

	s.Pause()
	s.Resume()
	s.Subscribe(nil, nil)

	is.Equal(calls, 1)
}

func TestNew_NilInit(t *testing.T) {
	require.Panics(t, func() {
		New[int](nil)
	})
}

func TestStream_SettlesOnce(t *testing.T) {
	is := is.New(t)

	s, sink := source[int]()
	r := record(s)

	is.True(sink.Emit(1))

	sink.Fulfill()
	sink.Reject(errBoom)
	sink.Cancel(errBoom)

	is.True(!sink.Emit(2))
	is.True(sink.Settled())

	is.Equal(r.values(), []int{1})

	o, ok := r.settled()
	is.True(ok)
	is.Equal(o, Outcome{State: Fulfilled})

	o, ok = s.Outcome()
	is.True(ok)
	is.Equal(o.State, Fulfilled)
}

func TestStream_PauseDropsElements(t *testing.T) {
	is := is.New(t)

	s, sink := source[int]()
	r := record(s)

	sink.Emit(1)

	s.Pause()
	is.Equal(s.State(), Paused)
	is.True(!sink.Running())
	is.True(!sink.Emit(2))

	s.Resume()
	sink.Emit(3)

	is.Equal(r.values(), []int{1, 3})
}

func TestStream_Hooks(t *testing.T) {
	is := is.New(t)

	events := []string{}

	s := New(func(_ Sink[int], cfg *Configure) {
		events = append(events, "init")

		cfg.OnResume(func() {
			events = append(events, "resume 1")
		})
		cfg.OnResume(func() {
			events = append(events, "resume 2")
		})
		cfg.OnPause(func() {
			events = append(events, "pause")
		})
		cfg.OnCancel(func(reason error) {
			is.Equal(reason, errBoom)
			events = append(events, "cancel")
		})
	})

	s.Subscribe(nil, nil)
	s.Pause()
	s.Pause()
	s.Resume()
	s.Cancel(errBoom)
	s.Cancel(nil)
	s.Resume()
	s.Pause()

	is.Equal(events, []string{"init", "resume 1", "resume 2", "pause", "resume 1", "resume 2", "cancel"})

	o, _ := s.Outcome()
	is.Equal(o, Outcome{State: Cancelled, Err: errBoom})
}

func TestStream_FulfillDoesNotCallCancelHooks(t *testing.T) {
	is := is.New(t)

	cancelled := false

	s := New(func(sink Sink[int], cfg *Configure) {
		cfg.OnCancel(func(error) {
			cancelled = true
		})

		sink.FulfillWith(42)
	})

	r := record(s)

	is.Equal(r.values(), []int{42})
	is.True(!cancelled)
	is.Equal(s.State(), Fulfilled)

	s.Cancel(nil)
	is.True(!cancelled)
}

func TestStream_SubscribeAfterSettle(t *testing.T) {
	is := is.New(t)

	s := Fail[int](errBoom)
	s.Subscribe(nil, nil)

	var got Outcome

	s.Subscribe(func(int) {
		t.Fatal("unexpected element")
	}, func(o Outcome) {
		got = o
	})

	is.Equal(got, Outcome{State: Rejected, Err: errBoom})
}

func TestStream_SubscriberOrder(t *testing.T) {
	is := is.New(t)

	s, sink := source[int]()

	events := []string{}

	s.Subscribe(func(elem int) {
		events = append(events, "a"+strconv.Itoa(elem))
	}, nil)
	s.Subscribe(func(elem int) {
		events = append(events, "b"+strconv.Itoa(elem))
	}, nil)

	sink.Emit(1)
	sink.Emit(2)

	is.Equal(events, []string{"a1", "b1", "a2", "b2"})
}

func TestStream_Done(t *testing.T) {
	is := is.New(t)

	s, sink := source[int]()
	s.Subscribe(nil, nil)

	select {
	case <-s.Done():
		t.Fatal("done before settling")
	default:
	}

	sink.Reject(errBoom)

	<-s.Done()

	o, ok := s.Outcome()
	is.True(ok)
	is.Equal(o.Result(), errBoom)
}

func TestStream_Close(t *testing.T) {
	is := is.New(t)

	s, _ := source[int]()
	s.Subscribe(nil, nil)

	is.NoErr(s.Close())
	is.Equal(s.State(), Cancelled)

	o, _ := s.Outcome()
	is.True(errors.Is(o.Result(), ErrCancelled))
}

func TestSubscription_Detach(t *testing.T) {
	is := is.New(t)

	s, sink := source[int]()

	r1 := record(s)

	detached := []int{}
	sub := s.Subscribe(func(elem int) {
		detached = append(detached, elem)
	}, nil)

	sink.Emit(1)
	sub.Detach()
	sink.Emit(2)

	is.Equal(r1.values(), []int{1, 2})
	is.Equal(detached, []int{1})
	is.Equal(s.State(), Running)
}

func TestSubscription_CancelUnwindsChain(t *testing.T) {
	is := is.New(t)

	s, sink := source[int]()

	doubled := Map(s, FuncMapper(func(elem int) int {
		return elem * 2
	}))

	got := []int{}
	sub := React(Filter(doubled, FuncPredicate(func(int) bool {
		return true
	})), func(elem int) {
		got = append(got, elem)
	})

	sink.Emit(1)
	sub.Cancel(errBoom)
	sink.Emit(2)

	is.Equal(got, []int{2})
	is.Equal(doubled.State(), Cancelled)
	is.Equal(s.State(), Cancelled)

	o, _ := s.Outcome()
	is.Equal(o.Err, errBoom)
}

func TestStream_ConcurrentPauseResume(t *testing.T) {
	is := is.New(t)

	up, upSink := source[int]()

	entered := make(chan struct{})
	release := make(chan struct{})

	down := New(func(sink Sink[int], cfg *Configure) {
		cfg.OnPause(func() {
			close(entered)
			<-release
		})

		follow(cfg, up, func(elem int) {
			sink.Emit(elem)
		}, sink.Settle)
	})

	r := record(down)

	paused := make(chan struct{})

	go func() {
		defer close(paused)
		down.Pause()
	}()

	<-entered
	down.Resume()
	close(release)
	<-paused

	upSink.Emit(42)

	is.Equal(down.State(), Running)
	is.Equal(up.State(), Running)
	is.Equal(r.values(), []int{42})
}

func TestStream_PauseDuringInit(t *testing.T) {
	is := is.New(t)

	up := Sequence(1, 2, 3)

	var down *Stream[int]

	down = New(func(sink Sink[int], cfg *Configure) {
		follow(cfg, up, func(elem int) {
			sink.Emit(elem)

			if elem == 1 {
				down.Pause()
			}
		}, sink.Settle)
	})

	r := record(down)

	is.Equal(r.values(), []int{1})
	is.Equal(down.State(), Paused)
	is.Equal(up.State(), Paused)

	down.Resume()

	is.Equal(r.values(), []int{1, 2, 3})
	is.Equal(down.State(), Fulfilled)
}

func TestStream_SubscribeDoesNotResumeStarted(t *testing.T) {
	is := is.New(t)

	s, sink := source[int]()

	s.Resume()
	s.Pause()

	r := record(s)

	is.Equal(s.State(), Paused)
	is.True(!sink.Emit(1))

	s.Resume()
	sink.Emit(2)

	is.Equal(r.values(), []int{2})
}
