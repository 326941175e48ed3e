// Package background runs detached operations whose outcome the caller does not wait for.
package background

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

type Runner struct {
	timeout  time.Duration
	wg       sync.WaitGroup
	inFlight atomic.Int64
	failed   atomic.Int64
}

// NewRunner returns a Runner whose tasks are cancelled after timeout. A zero
// timeout lets tasks run until they finish on their own.
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{timeout: timeout}
}

// Go starts fn and returns immediately. The task context is not derived from
// any request, so it keeps running after the caller has answered its client.
// A failure is logged with the task name.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	r.inFlight.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.inFlight.Add(-1)

		var ctx, cancel = context.Background(), context.CancelFunc(func() {})
		if r.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
		}
		defer cancel()

		var started = time.Now()
		if err := fn(ctx); err != nil {
			r.failed.Add(1)
			log.Error().Err(err).Str("task", name).Dur("duration", time.Since(started)).Msg("Detached task failed")
			return
		}
		log.Debug().Str("task", name).Dur("duration", time.Since(started)).Msg("Detached task done")
	}()
}

func (r *Runner) InFlight() int64 {
	return r.inFlight.Load()
}

func (r *Runner) Failed() int64 {
	return r.failed.Load()
}

// Wait blocks until all started tasks are done or ctx ends.
func (r *Runner) Wait(ctx context.Context) error {
	var done = make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
