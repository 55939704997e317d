package logging

import (
	"strings"
	"sync"
)

// Buffer is an io.Writer that keeps the most recent complete lines written
// to it. The TUI renders its tail as the log pane.
type Buffer struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial string
}

// NewBuffer keeps at most max lines; max <= 0 keeps everything.
func NewBuffer(max int) *Buffer { return &Buffer{max: max} }

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.partial + string(p)
	parts := strings.Split(s, "\n")
	b.partial = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		b.lines = append(b.lines, line)
	}
	if b.max > 0 && len(b.lines) > b.max {
		b.lines = append([]string(nil), b.lines[len(b.lines)-b.max:]...)
	}
	return len(p), nil
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// Tail returns up to n of the newest lines.
func (b *Buffer) Tail(n int) []string {
	lines := b.Lines()
	if n >= 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
