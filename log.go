package gostreams

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Log returns a stream that mirrors s, logging its lifecycle to log under the given name.
// Elements are logged at debug level, fulfillment and cancellation at info, and rejection at warn.
func Log[T any](s *Stream[T], log *slog.Logger, name string) *Stream[T] {
	log = log.With("stream", name)

	return New(func(sink Sink[T], cfg *Configure) {
		cfg.OnPause(func() {
			log.Debug("Paused")
		})

		cfg.OnCancel(func(reason error) {
			log.Info("Cancelled by downstream", "reason", reason)
		})

		count := atomic.Uint64{}

		follow(cfg, s, func(elem T) {
			index := count.Add(1) - 1

			if log.Enabled(context.Background(), slog.LevelDebug) {
				log.Debug("Emitting element", "index", index, "elem", elem)
			}

			sink.Emit(elem)
		}, func(o Outcome) {
			switch o.State {
			case Rejected:
				log.Warn("Upstream rejected", "err", o.Err, "elements", count.Load())

			case Cancelled:
				log.Info("Upstream cancelled", "reason", o.Err, "elements", count.Load())

			default:
				log.Info("Upstream fulfilled", "elements", count.Load())
			}

			sink.Settle(o)
		})
	})
}
