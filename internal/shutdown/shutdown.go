// Package shutdown stops tracked processes and goroutines when the program
// receives a termination signal, escalating from a polite interrupt to a
// kill as signals repeat or time passes.
//
// Urgency levels:
//
//	1+  interrupt running process groups; once none remain, interrupt units
//	3+  terminate running process groups
//	4+  kill running process groups
//
// Every signal raises the urgency (SIGTERM raises it to at least 3) and
// restarts the escalation loop, which reapplies the current level and then
// raises it by one every Interval until nothing tracked is left.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/amonks/chore/internal/mutex"
)

// Process is a process group leader.
type Process interface {
	Pid() int
	ExitCode() (int, bool)
	Interrupt() error
	Terminate(force bool) error
	Hangup() error
}

// Unit is a cancellable goroutine, such as an *executor.Executor.
type Unit interface {
	IsDone() bool
	Interrupt()
}

type Coordinator struct {
	// Interval is the delay between escalations.
	Interval time.Duration
	// Logf receives debug messages.
	Logf func(format string, args ...any)

	mu        *mutex.Mutex
	urgency   int
	next      int
	processes map[int]Process
	units     map[int]Unit
	stopLoop  context.CancelFunc
	wg        sync.WaitGroup

	signals chan os.Signal
	done    chan struct{}
}

func New() *Coordinator {
	return &Coordinator{
		Interval:  time.Second,
		Logf:      func(string, ...any) {},
		mu:        mutex.New("shutdown"),
		processes: map[int]Process{},
		units:     map[int]Unit{},
	}
}

// Track registers p for shutdown. Calling untrack removes it again.
func (c *Coordinator) Track(p Process) (untrack func()) {
	defer c.mu.Lock("Track").Unlock()
	id := c.next
	c.next++
	c.processes[id] = p
	return func() {
		defer c.mu.Lock("untrack process").Unlock()
		delete(c.processes, id)
	}
}

// TrackUnit registers u for shutdown. Calling untrack removes it again.
func (c *Coordinator) TrackUnit(u Unit) (untrack func()) {
	defer c.mu.Lock("TrackUnit").Unlock()
	id := c.next
	c.next++
	c.units[id] = u
	return func() {
		defer c.mu.Lock("untrack unit").Unlock()
		delete(c.units, id)
	}
}

// Urgency returns the current escalation level.
func (c *Coordinator) Urgency() int {
	defer c.mu.Lock("Urgency").Unlock()
	return c.urgency
}

// Install starts handling termination signals. Call Restore to stop.
func (c *Coordinator) Install() {
	defer c.mu.Lock("Install").Unlock()
	if c.signals != nil {
		return
	}
	c.signals = make(chan os.Signal, 1)
	c.done = make(chan struct{})
	signal.Notify(c.signals, handledSignals...)

	go func(signals <-chan os.Signal, done <-chan struct{}) {
		for {
			select {
			case <-done:
				return
			case sig := <-signals:
				if isHangup(sig) {
					c.Hangup(sig)
				} else {
					c.Shutdown(sig)
				}
			}
		}
	}(c.signals, c.done)
}

// Restore stops handling signals, restoring their default behavior. An
// escalation loop already running continues until it finishes.
func (c *Coordinator) Restore() {
	defer c.mu.Lock("Restore").Unlock()
	if c.signals == nil {
		return
	}
	signal.Stop(c.signals)
	close(c.done)
	c.signals, c.done = nil, nil
}

// Shutdown raises the urgency for sig and restarts the escalation loop.
func (c *Coordinator) Shutdown(sig os.Signal) {
	c.mu.Lock("Shutdown")
	c.Logf(" ! Termination requested with signal: '%s'", sig)
	if isTerminate(sig) {
		c.urgency += max(1, 3-c.urgency)
	} else {
		c.urgency++
	}
	if c.stopLoop != nil {
		c.stopLoop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.stopLoop = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go c.loop(ctx)
}

// Hangup forwards a hangup to every running process group, then shuts down.
// Process groups do not see the terminal closing, so they must be told.
func (c *Coordinator) Hangup(sig os.Signal) {
	c.Logf(" ! SIGHUP received: propagating to subprocess groups")
	for id, p := range c.snapshot() {
		if !running(p) {
			c.forget(id)
			continue
		}
		c.Logf(" ! Sending SIGHUP to subprocess group %d", p.Pid())
		p.Hangup()
	}
	c.Shutdown(sig)
}

// Wait blocks until every escalation loop started so far has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) loop(ctx context.Context) {
	defer c.wg.Done()
	for c.busy() {
		c.apply()
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.Interval):
		}
		c.mu.Lock("escalate")
		c.urgency++
		c.mu.Unlock()
	}
}

func (c *Coordinator) busy() bool {
	defer c.mu.Lock("busy").Unlock()
	return len(c.processes) > 0 || len(c.units) > 0
}

func (c *Coordinator) snapshot() map[int]Process {
	defer c.mu.Lock("snapshot").Unlock()
	ps := make(map[int]Process, len(c.processes))
	for id, p := range c.processes {
		ps[id] = p
	}
	return ps
}

func (c *Coordinator) forget(id int) {
	defer c.mu.Lock("forget").Unlock()
	delete(c.processes, id)
}

func running(p Process) bool {
	_, exited := p.ExitCode()
	return !exited
}

// apply performs one round of shutdown at the current urgency.
func (c *Coordinator) apply() {
	urgency := c.Urgency()
	c.Logf(" ! Shutdown triggered level %d: commencing cleanup", urgency)

	for id, p := range c.snapshot() {
		if !running(p) {
			c.forget(id)
			continue
		}
		c.Logf(" ! Sending %s to subprocess group %d", interruptName, p.Pid())
		p.Interrupt()
	}

	if len(c.snapshot()) == 0 {
		c.Logf(" ! Cleaning up tasks")
		c.mu.Lock("units")
		units := make(map[int]Unit, len(c.units))
		for id, u := range c.units {
			units[id] = u
		}
		c.mu.Unlock()
		for id, u := range units {
			if u.IsDone() {
				c.mu.Lock("forget unit")
				delete(c.units, id)
				c.mu.Unlock()
				continue
			}
			c.Logf(" ! Cancelling task")
			u.Interrupt()
		}
	}

	if urgency >= 3 {
		c.Logf(" ! Forceful shutdown triggered: terminating subprocesses")
		c.terminate(false)
	}
	if urgency >= 4 {
		c.Logf(" ! Forceful shutdown triggered: killing subprocesses")
		c.terminate(true)
	}
}

func (c *Coordinator) terminate(force bool) {
	for id, p := range c.snapshot() {
		if !running(p) {
			c.forget(id)
			continue
		}
		p.Terminate(force)
	}
}
