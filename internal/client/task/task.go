// Package task runs cancellable units of work whose results may be
// discarded when a newer unit supersedes them.
//
// A Latest runner keeps at most one current task. Starting a new task
// cancels the previous one, and only the current task is allowed to commit
// its result (see Commit). A stale response can therefore never overwrite
// the outcome of a request issued after it, whatever order the responses
// arrive in.
package task

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is reported by a task whose result was discarded because a
// newer task was started (or the runner was stopped) before it committed.
var ErrSuperseded = errors.New("superseded by a newer request")

// Commit runs apply under the runner lock if the calling task is still
// current and reports whether it did.
type Commit func(apply func()) bool

// Func is the body of a task.
type Func func(ctx context.Context, commit Commit) error

// Handle refers to a started task.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Done is closed when the task has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err is the task result; only meaningful after Done is closed.
func (h *Handle) Err() error { return h.err }

// Wait blocks until the task returns and yields its result.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Latest is a runner in which only the most recently started task may
// commit. The zero value is ready to use.
type Latest struct {
	mu      sync.Mutex
	seq     uint64
	current *Handle
}

// Go starts fn in its own goroutine and returns its handle.
func (l *Latest) Go(parent context.Context, fn Func) *Handle {
	ctx, cancel := context.WithCancel(parent)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	l.mu.Lock()
	l.seq++
	id := l.seq
	if l.current != nil {
		l.current.cancel()
	}
	l.current = h
	l.mu.Unlock()

	var committed bool
	commit := func(apply func()) bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.seq != id {
			return false
		}
		if apply != nil {
			apply()
		}
		committed = true
		return true
	}

	go func() {
		defer close(h.done)
		defer cancel()

		err := fn(ctx, commit)

		l.mu.Lock()
		stale := l.seq != id
		if l.current == h {
			l.current = nil
		}
		done := committed
		l.mu.Unlock()

		if stale && !done {
			err = ErrSuperseded
		}
		h.err = err
	}()

	return h
}

// Stop cancels the current task, if any, and prevents it from committing.
func (l *Latest) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	if l.current != nil {
		l.current.cancel()
		l.current = nil
	}
}
