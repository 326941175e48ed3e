// Package interval provides a cancellable, timer-driven counter source.
package interval

import (
	"context"
	"time"
)

// Ticks emits 0, 1, 2, ... on the returned channel, one value per period. The
// first value is emitted one period after the call. The ticker is stopped and
// the channel closed as soon as ctx is done; a consumer that stops reading
// must cancel ctx.
func Ticks(ctx context.Context, period time.Duration) <-chan int64 {
	var ch = make(chan int64)
	go func() {
		defer close(ch)
		var ticker = time.NewTicker(period)
		defer ticker.Stop()
		for n := int64(0); ; n++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			select {
			case <-ctx.Done():
				return
			case ch <- n:
			}
		}
	}()
	return ch
}
