// Package executor runs a cancelable function in its own goroutine, as an
// object that can be passed around, interrupted, and waited for. Every task
// run owns one; the shutdown coordinator interrupts them.
package executor

import (
	"context"

	"github.com/amonks/chore/internal/mutex"
)

type Executor struct {
	fn func(context.Context) error

	ctx    context.Context
	cancel context.CancelFunc

	// Take mu to touch started or err.
	mu      *mutex.Mutex
	started bool
	err     error
	done    chan struct{}
}

func New(fn func(ctx context.Context) error) *Executor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Executor{
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
		mu:     mutex.New("executor"),
		done:   make(chan struct{}),
	}
}

// Execute starts the function. Later calls, and calls after Interrupt, do
// nothing.
func (e *Executor) Execute() {
	defer e.mu.Lock("Execute").Unlock()
	if e.started {
		return
	}
	e.started = true

	go func() {
		err := e.fn(e.ctx)
		e.cancel()

		defer e.mu.Lock("exit").Unlock()
		e.err = err
		close(e.done)
	}()
}

// Done is closed once the function has returned, or once an executor that
// never started is interrupted.
func (e *Executor) Done() <-chan struct{} { return e.done }

// IsDone reports whether Done is closed.
func (e *Executor) IsDone() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Err returns the function's error, or nil if it has not returned. An
// executor interrupted before it started reports context.Canceled.
func (e *Executor) Err() error {
	defer e.mu.Lock("Err").Unlock()
	return e.err
}

// Interrupt cancels the function's context without waiting for it to
// return.
func (e *Executor) Interrupt() {
	defer e.mu.Lock("Interrupt").Unlock()
	e.cancel()
	if !e.started {
		e.started = true
		e.err = context.Canceled
		close(e.done)
	}
}
