// Package schedule provides the cancellable, self-rescheduling loop shared
// by the token watcher, the health poller and the CLI auto-refresh.
package schedule

import (
	"context"
	"sync"
	"time"
)

// TickFunc runs one step and returns the delay before the next one. Returning
// ok=false ends the loop.
type TickFunc func(ctx context.Context) (next time.Duration, ok bool)

// Run calls tick after first and then after each delay tick returns, until
// ctx is done or tick declines to continue. No timer outlives Run.
func Run(ctx context.Context, first time.Duration, tick TickFunc) {
	t := time.NewTimer(first)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		next, ok := tick(ctx)
		if !ok || ctx.Err() != nil {
			return
		}
		t.Reset(next)
	}
}

// Loop runs Run on its own goroutine and can be stopped from outside.
type Loop struct {
	startMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start launches the loop, stopping a previous one first.
func (l *Loop) Start(ctx context.Context, first time.Duration, tick TickFunc) {
	l.startMu.Lock()
	defer l.startMu.Unlock()

	l.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.mu.Lock()
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	go func() {
		defer close(done)
		Run(ctx, first, tick)
	}()
}

// Stop cancels the loop and waits for it to exit.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Cancel asks the loop to exit without waiting. It is the only stop that is
// safe to call from inside tick.
func (l *Loop) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Running reports whether a started loop has not yet exited.
func (l *Loop) Running() bool {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
