package events

import (
	"context"
	"sync"
	"time"
)

// DefaultSettleDelay is the burst settle window for debounced subscribers.
const DefaultSettleDelay = 300 * time.Millisecond

// Debounce wraps h so that a burst of events collapses into one invocation
// after the stream has been quiet for delay. Several transactions landing
// together then trigger a single recomputation instead of a storm. Only the
// last event of a burst is delivered; for resync-style handlers that refetch
// a fresh snapshot anyway, the dropped intermediates carry no information.
func Debounce(delay time.Duration, h Handler) Handler {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
		last  Event
	)

	return func(_ context.Context, ev Event) {
		mu.Lock()
		defer mu.Unlock()
		last = ev
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			mu.Lock()
			ev := last
			mu.Unlock()
			// Detached context: the publishing request may be long gone.
			h(context.Background(), ev)
		})
	}
}
