package testhelpers

import (
	"io"
	"strings"
	"sync/atomic"
	"testing"
)

// Writer routes log output to t.Log so it is only shown for failing tests.
type Writer struct {
	t    *testing.T
	done atomic.Bool
}

// NewWriter creates a Writer bound to the test's lifetime.
func NewWriter(t *testing.T) io.Writer {
	w := &Writer{t: t}
	// Mark the writer closed when the test finishes to prevent data races.
	t.Cleanup(func() {
		w.done.Store(true)
	})
	return w
}

// Write implements io.Writer. Writing after the test has finished panics,
// which surfaces goroutines that outlive their test.
func (w *Writer) Write(p []byte) (int, error) {
	if w.done.Load() {
		panic("testhelpers: write after test completion, did you forget to shut down a server in t.Cleanup?")
	}
	// t.Log appends its own newline.
	if line := strings.TrimSuffix(string(p), "\n"); line != "" {
		w.t.Log(line)
	}
	return len(p), nil
}
