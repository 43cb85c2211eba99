// Package report keeps the results of recent runs so their output can be
// read back after the tool call that produced them.
package report

import (
	"errors"
	"fmt"

	"github.com/deixis/overseer/internal/runner"
)

// ErrNotFound is returned by Load for an unknown or evicted run.
var ErrNotFound = errors.New("run not found")

// Store saves and retrieves run results by RunID.
type Store interface {
	Save(result *runner.Result) error
	Load(runID string) (*runner.Result, error)
}

// Stream selects one of the captured output streams.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// ParseStream maps a stream name to a Stream. The empty name selects stdout.
func ParseStream(name string) (Stream, error) {
	switch Stream(name) {
	case "", Stdout:
		return Stdout, nil
	case Stderr:
		return Stderr, nil
	}
	return "", fmt.Errorf("unknown stream %q (want stdout or stderr)", name)
}

// Text returns the captured text of stream s.
func Text(r *runner.Result, s Stream) string {
	if s == Stderr {
		return r.Stderr
	}
	return r.Stdout
}

// Page is a window into one stream of a stored run.
type Page struct {
	Text   string
	Offset int // byte offset of Text within the stream
	Total  int // stream length in bytes
}

// More reports whether the stream continues past this page.
func (p Page) More() bool { return p.Offset+len(p.Text) < p.Total }

// Slice returns up to limit bytes of stream s starting at offset. A
// negative offset counts back from the end. limit <= 0 means the rest of
// the stream.
func Slice(r *runner.Result, s Stream, offset, limit int) Page {
	text := Text(r, s)
	total := len(text)
	if offset < 0 {
		offset = max(total+offset, 0)
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}
	return Page{Text: text[offset:end], Offset: offset, Total: total}
}
