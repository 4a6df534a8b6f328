// Package process launches task subprocesses in their own process groups
// and signals those groups.
package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/amonks/chore/internal/mutex"
)

// Spec describes a subprocess. Env is the complete environment of the
// process; PATH is looked up in it to resolve Argv[0].
type Spec struct {
	Argv   []string
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Process is a running (or exited) subprocess. It is the leader of its own
// process group, so signals sent through Process reach its descendants too.
type Process struct {
	cmd *exec.Cmd
	mu  *mutex.Mutex

	done   chan struct{}
	code   int
	err    error
	exited bool
}

var ErrNoCommand = errors.New("empty command")

// Start launches the process described by spec. It returns once the process
// has started; use Wait to wait for it to exit.
func Start(spec Spec) (*Process, error) {
	if len(spec.Argv) == 0 {
		return nil, ErrNoCommand
	}
	if spec.Dir != "" {
		if info, err := os.Stat(spec.Dir); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("Working directory %q does not exist", spec.Dir)
		}
	}

	executable, err := lookPath(spec.Argv[0], spec.Env)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(executable, spec.Argv[1:]...)
	cmd.Args[0] = spec.Argv[0]
	cmd.SysProcAttr = sysProcAttr()
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &Process{
		cmd:  cmd,
		mu:   mutex.New("process"),
		done: make(chan struct{}),
	}
	go p.wait()
	return p, nil
}

func (p *Process) wait() {
	err := p.cmd.Wait()

	p.mu.Lock("wait")
	defer p.mu.Unlock()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		p.code = 0
	case errors.As(err, &exitErr):
		p.code = exitCode(exitErr.ProcessState)
	default:
		p.code = -1
		p.err = fmt.Errorf("wait err: %w", err)
	}
	p.exited = true
	close(p.done)
}

func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the process exits and returns its exit code. A process
// killed by signal N exits with 128+N. The error is non-nil only if the
// process could not be waited for.
func (p *Process) Wait() (int, error) {
	<-p.done
	defer p.mu.Lock("Wait").Unlock()
	return p.code, p.err
}

// ExitCode returns the exit code, and false if the process is still
// running.
func (p *Process) ExitCode() (int, bool) {
	defer p.mu.Lock("ExitCode").Unlock()
	return p.code, p.exited
}

func (p *Process) running() bool {
	defer p.mu.Lock("running").Unlock()
	return !p.exited
}

// Interrupt asks the process group to stop: SIGINT on unix, CTRL_BREAK on
// windows.
func (p *Process) Interrupt() error {
	if !p.running() {
		return nil
	}
	if err := interrupt(p.Pid()); err != nil {
		return fmt.Errorf("interrupt error: %w", err)
	}
	return nil
}

// Terminate forcefully stops the process group. On windows, force selects
// between a polite and a forced taskkill; on unix the group is always sent
// SIGKILL.
func (p *Process) Terminate(force bool) error {
	if !p.running() {
		return nil
	}
	if err := terminate(p.Pid(), force); err != nil {
		return fmt.Errorf("terminate error: %w", err)
	}
	return nil
}

// Kill is Terminate(true).
func (p *Process) Kill() error {
	return p.Terminate(true)
}

// Hangup forwards SIGHUP to the process group. It does nothing on windows.
func (p *Process) Hangup() error {
	if !p.running() {
		return nil
	}
	return hangup(p.Pid())
}

// lookPath resolves name against the PATH found in env, falling back to the
// current process's PATH.
func lookPath(name string, env []string) (string, error) {
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return name, nil
	}
	path, ok := lookupEnv(env, "PATH")
	if !ok {
		return exec.LookPath(name)
	}
	for _, dir := range filepath.SplitList(path) {
		candidate := filepath.Join(dir, name)
		if !strings.ContainsRune(candidate, filepath.Separator) {
			candidate = "." + string(filepath.Separator) + candidate
		}
		if found, err := exec.LookPath(candidate); err == nil {
			return found, nil
		}
	}
	return "", fmt.Errorf("%q: %w", name, exec.ErrNotFound)
}

func lookupEnv(env []string, key string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(env[i], "=")
		if ok && envKeyEqual(k, key) {
			return v, true
		}
	}
	return "", false
}
