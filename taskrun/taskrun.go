// Package taskrun tracks the execution of one task: the goroutine running
// it, the OS processes it starts, and the runs of its subtasks.
//
// A Run is finalized once no more processes or children may be attached to
// it, which happens when its function returns, when Finalize is called, or
// when it is killed. It is done once it is finalized and every process and
// child has finished.
package taskrun

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/amonks/chore/internal/executor"
)

// Process is an OS process owned by a run.
type Process interface {
	Pid() int
	// ExitCode returns false while the process is running.
	ExitCode() (int, bool)
	Wait() (int, error)
	Kill() error
}

// Event reports that a run completed. Failed events carry the run's error,
// if its function returned one.
type Event struct {
	Name   string
	Failed bool
	Err    error
}

func (e Event) String() string {
	switch {
	case !e.Failed:
		return fmt.Sprintf("%s: done", e.Name)
	case e.Err != nil:
		return fmt.Sprintf("%s: failed: %s", e.Name, e.Err)
	default:
		return fmt.Sprintf("%s: failed", e.Name)
	}
}

type callback struct {
	id int
	fn func(Event)
}

type Run struct {
	name string
	unit *executor.Executor

	mu   sync.Mutex
	cond *sync.Cond

	processes []Process
	children  []*Run

	ignoreFailure bool
	forceFailure  bool
	finalized     bool

	callbacks     []callback
	nextCallback  int
	watching      bool
	subscriptions []*subscription
}

// New starts fn in a new goroutine and returns its run. The run is
// finalized when fn returns. The context passed to fn is canceled when the
// run is killed.
func New(name string, fn func(ctx context.Context, r *Run) error) *Run {
	r := &Run{name: name}
	r.cond = sync.NewCond(&r.mu)
	r.unit = executor.New(func(ctx context.Context) error {
		if fn == nil {
			return nil
		}
		return fn(ctx, r)
	})
	r.unit.Execute()
	go func() {
		<-r.unit.Done()
		r.Finalize()
	}()
	return r
}

func (r *Run) Name() string { return r.name }

// Unit returns the executor running the run's function.
func (r *Run) Unit() *executor.Executor { return r.unit }

// IgnoreFailure makes the run succeed with return code 0 whatever its
// processes and children do.
func (r *Run) IgnoreFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignoreFailure, r.forceFailure = true, false
}

// ForceFailure makes the run fail, with a return code of at least 1.
func (r *Run) ForceFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignoreFailure, r.forceFailure = false, true
}

// AddProcess attaches p to the run, finalizing the run if finalize is set.
// It panics if the run is already finalized.
func (r *Run) AddProcess(p Process, finalize bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		panic(fmt.Sprintf("cannot add process to finalized run %q", r.name))
	}
	r.processes = append(r.processes, p)
	if finalize {
		r.finalized = true
	}
	r.cond.Broadcast()
}

// AddChild attaches the run of a subtask. It panics if the run is already
// finalized.
func (r *Run) AddChild(c *Run) {
	if !r.TryAddChild(c) {
		panic(fmt.Sprintf("cannot add child to finalized run %q", r.name))
	}
}

// TryAddChild attaches c unless the run is already finalized, which
// happens when it is killed while starting a subtask. It reports whether c
// was attached.
func (r *Run) TryAddChild(c *Run) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return false
	}
	r.children = append(r.children, c)
	for _, s := range r.subscriptions {
		c.OnDone(s.expect())
	}
	r.cond.Broadcast()

	c.OnDone(func(Event) { r.notify() })
	return true
}

// Finalize prevents any further processes or children from being attached.
func (r *Run) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = true
	r.cond.Broadcast()
}

func (r *Run) notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cond.Broadcast()
}

// Finalized reports whether the run and all its descendants are finalized.
func (r *Run) Finalized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finalized {
		return false
	}
	for _, c := range r.children {
		if !c.Finalized() {
			return false
		}
	}
	return true
}

// Done reports whether the run is finalized and all its processes and
// children have finished.
func (r *Run) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finalized {
		return false
	}
	for _, p := range r.processes {
		if _, exited := p.ExitCode(); !exited {
			return false
		}
	}
	for _, c := range r.children {
		if !c.Done() {
			return false
		}
	}
	return true
}

// Err returns the error returned by the run's function.
func (r *Run) Err() error {
	return r.unit.Err()
}

// HasFailure reports whether the run failed: its function returned an
// error, a process exited non-zero, a child failed, or failure was forced.
// A run that ignores failure never fails.
func (r *Run) HasFailure() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ignoreFailure {
		return false
	}
	if r.unit.IsDone() && r.unit.Err() != nil {
		return true
	}
	for _, p := range r.processes {
		if code, exited := p.ExitCode(); exited && code != 0 {
			return true
		}
	}
	for _, c := range r.children {
		if c.HasFailure() {
			return true
		}
	}
	return r.forceFailure
}

// ReturnCode sums the non-zero exit codes of the run's processes and the
// return codes of its children. ok is false while any of them is still
// running. A run that ignores failure returns 0; a forced failure returns at
// least 1.
func (r *Run) ReturnCode() (code int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sum := 0
	for _, p := range r.processes {
		c, exited := p.ExitCode()
		if !exited {
			return 0, false
		}
		sum += c
	}
	for _, child := range r.children {
		c, ok := child.ReturnCode()
		if !ok {
			return 0, false
		}
		sum += c
	}
	if r.ignoreFailure {
		return 0, true
	}
	if sum == 0 && r.forceFailure {
		return 1, true
	}
	return sum, true
}

// Kill finalizes the run, cancels its function, and kills its live
// processes and children. It does not wait, so a run may kill itself.
func (r *Run) Kill() {
	r.mu.Lock()
	r.finalized = true
	processes := slices.Clone(r.processes)
	children := slices.Clone(r.children)
	r.mu.Unlock()

	r.unit.Interrupt()
	for _, p := range processes {
		if _, exited := p.ExitCode(); !exited {
			p.Kill()
		}
	}
	for _, c := range children {
		c.Kill()
	}
	r.notify()
}

// Wait blocks until the run is finalized, then until its function returns,
// then until each of its processes and children is done. Unless
// suppressErrors is set, the first error returned by the function of the
// run or of a descendant is returned.
func (r *Run) Wait(suppressErrors bool) error {
	r.mu.Lock()
	for !r.finalized {
		r.cond.Wait()
	}
	processes := slices.Clone(r.processes)
	children := slices.Clone(r.children)
	r.mu.Unlock()

	<-r.unit.Done()
	if err := r.unit.Err(); err != nil && !suppressErrors {
		return err
	}
	for _, p := range processes {
		p.Wait()
	}
	for _, c := range children {
		if err := c.Wait(suppressErrors); err != nil {
			return err
		}
	}
	return nil
}

// ChildIndex returns the position of the child that is d or an ancestor of
// d, or -1 if d does not descend from r.
func (r *Run) ChildIndex(d *Run) int {
	for i, c := range r.Children() {
		if c == d || c.ChildIndex(d) >= 0 {
			return i
		}
	}
	return -1
}

// Children returns the runs attached so far.
func (r *Run) Children() []*Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.children)
}

// Processes returns the processes of the run and all its descendants.
func (r *Run) Processes() []Process {
	r.mu.Lock()
	ps := slices.Clone(r.processes)
	children := slices.Clone(r.children)
	r.mu.Unlock()

	for _, c := range children {
		ps = append(ps, c.Processes()...)
	}
	return ps
}

// OnDone registers fn to be called once with the run's completion event.
// If the run is already done, fn is called soon after registration.
func (r *Run) OnDone(fn func(Event)) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onDoneLocked(fn)
}

func (r *Run) onDoneLocked(fn func(Event)) (cancel func()) {
	id := r.nextCallback
	r.nextCallback++
	r.callbacks = append(r.callbacks, callback{id, fn})
	if !r.watching {
		r.watching = true
		go r.watchCompletion()
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.callbacks = slices.DeleteFunc(r.callbacks, func(cb callback) bool { return cb.id == id })
	}
}

func (r *Run) watchCompletion() {
	r.Wait(true)

	ev := Event{Name: r.name}
	if r.HasFailure() {
		ev.Failed = true
		ev.Err = r.unit.Err()
	}

	for {
		r.mu.Lock()
		n := len(r.callbacks)
		if n == 0 {
			r.watching = false
			r.mu.Unlock()
			return
		}
		cb := r.callbacks[n-1]
		r.callbacks = r.callbacks[:n-1]
		r.mu.Unlock()

		cb.fn(ev)
	}
}

// Events returns a channel of completion events for the run and each of its
// direct children, including children attached later. The channel is
// closed after the last of those events; callers must drain it.
func (r *Run) Events() <-chan Event {
	s := newSubscription()

	r.mu.Lock()
	r.onDoneLocked(s.expect())
	for _, c := range r.children {
		c.OnDone(s.expect())
	}
	r.subscriptions = append(r.subscriptions, s)
	r.mu.Unlock()

	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			ev, ok := s.next()
			if !ok {
				break
			}
			out <- ev
		}
		r.mu.Lock()
		r.subscriptions = slices.DeleteFunc(r.subscriptions, func(other *subscription) bool { return other == s })
		r.mu.Unlock()
	}()
	return out
}

// subscription is an unbounded queue of events from a set of runs. It is
// exhausted once every watched run has reported.
type subscription struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	pending int
}

func newSubscription() *subscription {
	s := &subscription{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// expect registers one more pending event and returns the callback that
// delivers it.
func (s *subscription) expect() func(Event) {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	return func(ev Event) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.queue = append(s.queue, ev)
		s.pending--
		s.cond.Broadcast()
	}
}

func (s *subscription) next() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && s.pending > 0 {
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return Event{}, false
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev, true
}
