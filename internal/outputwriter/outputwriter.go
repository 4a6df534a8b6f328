// Package outputwriter holds back partial lines, so lines from concurrent
// tasks never interleave mid-line.
package outputwriter

import (
	"bytes"
	"io"

	"github.com/amonks/chore/internal/mutex"
)

type Writer struct {
	w io.Writer

	mu      *mutex.Mutex
	pending []byte
}

func New(w io.Writer) *Writer {
	return &Writer{w: w, mu: mutex.New("outputwriter")}
}

// Write passes every complete line through to the underlying writer in a
// single write, and keeps the rest until the line is finished.
func (w *Writer) Write(bs []byte) (int, error) {
	defer w.mu.Lock("Write").Unlock()

	end := bytes.LastIndexByte(bs, '\n')
	if end < 0 {
		w.pending = append(w.pending, bs...)
		return len(bs), nil
	}

	lines := append(w.pending, bs[:end+1]...)
	w.pending = append([]byte(nil), bs[end+1:]...)
	if _, err := w.w.Write(lines); err != nil {
		return 0, err
	}
	return len(bs), nil
}

// Flush writes out a trailing partial line, if any.
func (w *Writer) Flush() error {
	defer w.mu.Lock("Flush").Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	_, err := w.w.Write(w.pending)
	w.pending = nil
	return err
}
