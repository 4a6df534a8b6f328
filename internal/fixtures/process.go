package fixtures

import (
	"fmt"
	"strings"
	"sync"
)

// Process is a fake OS process. It exits when the test calls Exit, or when
// it receives a signal it does not ignore.
type Process struct {
	pid int

	mu      sync.Mutex
	code    int
	exited  bool
	done    chan struct{}
	ignored map[string]bool
	signals []string
}

func NewProcess(pid int) *Process {
	return &Process{pid: pid, done: make(chan struct{}), ignored: map[string]bool{}}
}

// Ignoring makes the process survive the named signals ("interrupt",
// "terminate", "hangup").
func (p *Process) Ignoring(signals ...string) *Process {
	for _, s := range signals {
		p.ignored[s] = true
	}
	return p
}

func (p *Process) Pid() int { return p.pid }

func (p *Process) Done() <-chan struct{} { return p.done }

func (p *Process) Exit(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exitLocked(code)
}

func (p *Process) exitLocked(code int) {
	if p.exited {
		return
	}
	p.code, p.exited = code, true
	close(p.done)
}

func (p *Process) ExitCode() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code, p.exited
}

func (p *Process) Wait() (int, error) {
	<-p.done
	code, _ := p.ExitCode()
	return code, nil
}

func (p *Process) signal(name string, code int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signals = append(p.signals, name)
	if !p.ignored[name] {
		p.exitLocked(code)
	}
	return nil
}

func (p *Process) Interrupt() error { return p.signal("interrupt", 130) }
func (p *Process) Hangup() error    { return p.signal("hangup", 129) }
func (p *Process) Kill() error      { return p.signal("kill", 137) }

func (p *Process) Terminate(force bool) error {
	if force {
		return p.Kill()
	}
	return p.signal("terminate", 137)
}

// Signals returns the signals received so far, space separated.
func (p *Process) Signals() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.signals, " ")
}

func (p *Process) String() string { return fmt.Sprintf("process %d", p.pid) }
