// Package safebuffer provides a buffer that may be written from several
// goroutines at once, such as by a process's stdout and stderr.
package safebuffer

import (
	"bytes"
	"strings"
	"sync"
)

type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func New() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Write(bs []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(bs)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Lines returns the buffered lines, without a trailing empty line.
func (b *Buffer) Lines() []string {
	s := strings.TrimSuffix(b.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
