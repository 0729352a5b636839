package gostreams

import (
	"context"
	"log/slog"
	"sync"
)

// Executor runs tasks in some execution context, for example a dedicated goroutine.
// Execute returns false if it refused task, which then never runs.
// A task it accepted always runs eventually.
type Executor interface {
	Execute(task func()) bool
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(task func()) bool

// Execute implements Executor.
func (f ExecutorFunc) Execute(task func()) bool {
	return f(task)
}

// Immediate runs every task synchronously, on the calling goroutine.
var Immediate Executor = ExecutorFunc(func(task func()) bool {
	task()
	return true
})

// ObserveOn returns a stream that mirrors s, but delivers every element and the settlement
// through exec. The order of elements and settlement is preserved if exec runs tasks in order.
// Lifecycle commands still reach s directly.
//
// If exec refuses an element, the new stream is cancelled with ErrExecutorStopped, which cancels s.
// If exec refuses the settlement, the new stream settles right away on the calling goroutine.
func ObserveOn[T any](s *Stream[T], exec Executor) *Stream[T] {
	return New(func(sink Sink[T], cfg *Configure) {
		follow(cfg, s, func(elem T) {
			accepted := exec.Execute(func() {
				sink.Emit(elem)
			})

			if !accepted {
				sink.Cancel(ErrExecutorStopped)
			}
		}, func(o Outcome) {
			accepted := exec.Execute(func() {
				sink.Settle(o)
			})

			if !accepted {
				sink.Settle(o)
			}
		})
	})
}

// SerialQueueConfig is the configuration passed to NewSerialQueue.
type SerialQueueConfig struct {
	// Name is added to every log line of the queue.
	Name string
}

// SerialQueue is an Executor that runs tasks one at a time, in submission order,
// on a single background goroutine.
// The queue is unbounded, so Execute never blocks.
type SerialQueue struct {
	log *slog.Logger

	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

// NewSerialQueue starts a SerialQueue. The queue stops when ctx is done:
// tasks submitted from then on are refused, and tasks already queued still run before the queue's goroutine exits.
// Tasks that panic are recovered and logged, and do not stop the queue.
func NewSerialQueue(ctx context.Context, log *slog.Logger, cfg SerialQueueConfig) *SerialQueue {
	if cfg.Name != "" {
		log = log.With("queue", cfg.Name)
	}

	q := &SerialQueue{
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	go q.run(ctx)

	return q
}

// Execute implements Executor. It returns false once the queue has stopped.
func (q *SerialQueue) Execute(task func()) bool {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		q.log.Debug("Refusing task submitted to stopped queue")

		return false
	}

	q.tasks = append(q.tasks, task)

	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	return true
}

// Done returns a channel that is closed once the queue's goroutine has stopped.
func (q *SerialQueue) Done() <-chan struct{} {
	return q.done
}

func (q *SerialQueue) run(ctx context.Context) {
	defer close(q.done)

	for {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.closed = true
			pending := len(q.tasks)
			q.mu.Unlock()

			if pending > 0 {
				q.log.Info("Stopping queue, draining pending tasks", "pending", pending)
			}

			q.drain()

			return

		case <-q.wake:
			q.drain()
		}
	}
}

// drain runs queued tasks until the queue is empty.
func (q *SerialQueue) drain() {
	for {
		q.mu.Lock()

		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}

		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]

		q.mu.Unlock()

		q.runTask(task)
	}
}

func (q *SerialQueue) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("Task panicked", "panic", r)
		}
	}()

	task()
}
