// Package clock provides the single logical thread that every session callback runs on.
//
// Timers never fire concurrently with each other or with posted work: a [Loop] runs everything
// on one goroutine, and [Fake] runs everything on the caller's goroutine when time is advanced.
package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a cancelable pending callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call stopped it.
	Stop() bool
}

// Scheduler queues work onto a single logical thread.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	Post(f func())
}

// Loop executes posted callbacks and fired timers sequentially on the goroutine calling [Loop.Run].
type Loop struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoop creates a loop with the given task buffer size.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{tasks: make(chan func(), buffer), done: make(chan struct{})}
}

func (l *Loop) Now() time.Time { return time.Now() }

// Post enqueues f. Posting after Close is dropped.
func (l *Loop) Post(f func()) {
	select {
	case <-l.done:
	case l.tasks <- f:
	}
}

// AfterFunc schedules f to be posted onto the loop after d.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.fired.CompareAndSwap(false, true) {
				return
			}
			f()
		})
	})
	return t
}

// Call runs f on the loop and waits for it to finish.
//
// Calling it from inside a loop callback deadlocks.
func (l *Loop) Call(ctx context.Context, f func()) error {
	wait := make(chan struct{})
	select {
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	case l.tasks <- func() { f(); close(wait) }:
	}

	select {
	case <-wait:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes tasks until ctx is canceled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case f := <-l.tasks:
			f()
		}
	}
}

// Close stops the loop. Pending tasks are discarded.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

type loopTimer struct {
	timer *time.Timer
	fired atomic.Bool
}

// Stop marks the timer as consumed so an already-queued callback is skipped.
func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.fired.CompareAndSwap(false, true)
}

type ticker struct {
	mu      sync.Mutex
	stopped bool
	current Timer
}

// Every runs f on s every d until the returned timer is stopped.
func Every(s Scheduler, d time.Duration, f func()) Timer {
	t := &ticker{}
	var arm func()
	arm = func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.stopped {
			return
		}
		t.current = s.AfterFunc(d, func() {
			f()
			arm()
		})
	}
	arm()
	return t
}

func (t *ticker) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	if t.current != nil {
		t.current.Stop()
	}
	return true
}
