// Package debounce collapses bursts of calls into one call after a quiet
// interval.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned to a caller whose pending call was replaced by
// a newer one before the quiet interval elapsed.
var ErrSuperseded = errors.New("debounce: superseded by a newer call")

// ErrStopped is returned to callers still pending when Stop is called.
var ErrStopped = errors.New("debounce: stopped")

type pending struct {
	timer  *time.Timer
	cancel context.CancelCauseFunc
	done   chan error
}

// Debouncer runs at most one fn per quiet interval. A newer Do discards the
// pending call: its timer is stopped, its context is cancelled and its
// caller receives ErrSuperseded.
type Debouncer struct {
	wait time.Duration

	mu      sync.Mutex
	current *pending
	stopped bool
}

func New(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

// Do schedules fn and blocks until fn has returned, the call was
// superseded, or ctx is done.
func (d *Debouncer) Do(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithCancelCause(ctx)
	p := &pending{cancel: cancel, done: make(chan error, 1)}

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		cancel(ErrStopped)
		return ErrStopped
	}
	if prev := d.current; prev != nil {
		d.discard(prev, ErrSuperseded)
	}
	d.current = p
	p.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		if d.current != p {
			d.mu.Unlock()
			return
		}
		d.current = nil
		d.mu.Unlock()

		err := fn(callCtx)
		cancel(nil)
		p.done <- err
	})
	d.mu.Unlock()

	select {
	case err := <-p.done:
		return err
	case <-ctx.Done():
		d.mu.Lock()
		if d.current == p {
			d.current = nil
			p.timer.Stop()
		}
		d.mu.Unlock()
		cancel(ctx.Err())
		return ctx.Err()
	}
}

// discard must be called with d.mu held. p is unclaimed: a timer that
// already fired finds d.current changed and returns without running fn.
func (d *Debouncer) discard(p *pending, cause error) {
	p.timer.Stop()
	p.cancel(cause)
	p.done <- cause
}

// Stop discards the pending call, if any. Later Do calls fail with
// ErrStopped.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.current != nil {
		d.discard(d.current, ErrStopped)
		d.current = nil
	}
}
