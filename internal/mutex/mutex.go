package mutex

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

func New(name string) *Mutex {
	mu := &Mutex{name: name}
	mu.Printf("--- begin ---")
	return mu
}

// Mutex wraps sync.Mutex, providing these additional features:
//   - You can `defer Lock(...).Unlock()` in a single line
//   - If CHORE_MUTEX_LOG names a file, lock and unlock events are
//     appended to it.
//   - You can log additional info to the same file with [Mutex.Printf].
type Mutex struct {
	name string
	mu   sync.Mutex
}

var (
	logMu   sync.Mutex
	logfile *os.File
)

func init() {
	path := os.Getenv("CHORE_MUTEX_LOG")
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chore: cannot open mutex log: %s\n", err)
		return
	}
	logfile = f
}

// Enabled reports whether lock tracing is on.
func Enabled() bool { return logfile != nil }

func (mu *Mutex) Lock(name string) *Mutex {
	mu.Printf("%s seeks lock", name)
	mu.mu.Lock()
	mu.Printf("%s receives lock", name)

	return mu
}

func (mu *Mutex) Unlock() {
	mu.Printf("releases lock")
	mu.mu.Unlock()
}

func (mu *Mutex) Printf(s string, args ...interface{}) {
	if logfile == nil {
		return
	}
	s = strings.TrimSpace(s)
	d := time.Now().Format(time.StampNano)
	prefix := fmt.Sprintf("%s [%s] ", d, mu.name)

	logMu.Lock()
	defer logMu.Unlock()
	fmt.Fprintf(logfile, prefix+s+"\n", args...)
}
