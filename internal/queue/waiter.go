package queue

import (
	"context"
	"errors"
	"time"

	"mapforge/internal/domain"
)

const defaultPollInterval = 2 * time.Second

// Waiter suspends a session until it reaches the front of the queue. The
// hosting interaction model has no push channel to the client, so the waiter
// polls the store on a fixed interval and reports every observed position.
type Waiter struct {
	store    *Store
	interval time.Duration
}

// NewWaiter creates a Waiter polling the given store. A non-positive
// interval falls back to the default.
func NewWaiter(store *Store, interval time.Duration) *Waiter {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Waiter{store: store, interval: interval}
}

// Wait returns a channel that carries the session's queue position at each
// poll tick while it is greater than zero. The channel is closed once the
// session reaches the front, once it disappears from the store, or once ctx
// is done. The sequence is finite and cannot be restarted; a waiting session
// cannot be aborted other than through ctx (host shutdown).
func (w *Waiter) Wait(ctx context.Context, session string) <-chan int {
	positions := make(chan int, 1)
	go func() {
		defer close(positions)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			rank, err := w.store.Rank(session)
			if errors.Is(err, domain.ErrNotQueued) {
				// Dequeued behind our back; stop waiting rather
				// than spin forever.
				return
			}
			if rank == 0 {
				return
			}
			select {
			case positions <- rank:
			case <-ctx.Done():
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return positions
}
