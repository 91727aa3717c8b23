// Package dispatch provides the single logical goroutine on which every store
// mutation runs. Background I/O hands its completion back through a
// Dispatcher instead of touching the stores directly.
package dispatch

import (
	"context"
	"errors"
)

// ErrStopped is returned by Call once the loop has stopped running.
var ErrStopped = errors.New("dispatch loop stopped")

// Dispatcher schedules fn to run on the logical goroutine. Tasks run in the
// order they were posted.
type Dispatcher interface {
	Post(fn func())
}

// Func adapts a plain function to a Dispatcher.
type Func func(fn func())

// Post calls f(fn)
func (f Func) Post(fn func()) { f(fn) }

// Loop is a Dispatcher backed by a goroutine draining a task queue.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// NewLoop creates a loop with room for buffer queued tasks
func NewLoop(buffer int) *Loop {
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes posted tasks until ctx is cancelled. Tasks still queued at
// that point are discarded.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post queues fn. It blocks while the queue is full and drops fn once the
// loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
