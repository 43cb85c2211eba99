package runner

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Output captures stdout and stderr of one process and reports activity.
//
// Each stream has its own buffer so ordering is preserved within a stream;
// nothing is promised about interleaving across streams. Every non-empty
// write sends a pulse on Activity. Pulses coalesce: a reader that falls
// behind sees at least one pending pulse, never a blocked writer.
type Output struct {
	stdout   *capWriter
	stderr   *capWriter
	activity chan struct{}
}

// NewOutput returns an Output that keeps at most limit bytes per stream.
// A limit <= 0 keeps everything.
func NewOutput(limit int) *Output {
	o := &Output{activity: make(chan struct{}, 1)}
	o.stdout = &capWriter{limit: limit, pulse: o.pulse}
	o.stderr = &capWriter{limit: limit, pulse: o.pulse}
	return o
}

// Stdout returns the writer for the process's standard output.
func (o *Output) Stdout() io.Writer { return o.stdout }

// Stderr returns the writer for the process's standard error.
func (o *Output) Stderr() io.Writer { return o.stderr }

// Activity returns the channel that receives a pulse after writes.
func (o *Output) Activity() <-chan struct{} { return o.activity }

// StdoutString returns the captured standard output.
func (o *Output) StdoutString() string { return o.stdout.String() }

// StderrString returns the captured standard error.
func (o *Output) StderrString() string { return o.stderr.String() }

// Truncated reports whether either stream exceeded the limit.
func (o *Output) Truncated() bool {
	return o.stdout.Dropped() > 0 || o.stderr.Dropped() > 0
}

func (o *Output) pulse() {
	select {
	case o.activity <- struct{}{}:
	default:
	}
}

// capWriter writes up to limit bytes to buf, then counts and discards the
// rest. It always reports the full length as written so the copying
// goroutine in os/exec keeps draining the pipe.
type capWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	limit   int
	dropped int64
	pulse   func()
}

func (w *capWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	w.mu.Lock()
	keep := len(p)
	if w.limit > 0 {
		keep = min(max(w.limit-w.buf.Len(), 0), len(p))
	}
	w.buf.Write(p[:keep])
	w.dropped += int64(len(p) - keep)
	w.mu.Unlock()

	w.pulse()
	return len(p), nil
}

// Dropped returns the number of bytes discarded past the limit.
func (w *capWriter) Dropped() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// String returns the kept bytes, followed by a truncation marker when
// anything was dropped.
func (w *capWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dropped == 0 {
		return w.buf.String()
	}
	return w.buf.String() + fmt.Sprintf("\n[... %d bytes truncated]", w.dropped)
}
