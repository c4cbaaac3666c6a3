package runner

import (
	"strings"
	"sync"
)

// tailWriter keeps the last maxLines lines written to it. Action output can
// be arbitrarily large; only the tail is worth carrying in a report.
type tailWriter struct {
	mu       sync.Mutex
	maxLines int
	lines    []string
	buffer   string
}

func newTailWriter(maxLines int) *tailWriter {
	if maxLines <= 0 {
		maxLines = defaultOutputTailLines
	}
	return &tailWriter{maxLines: maxLines}
}

func (t *tailWriter) Write(p []byte) (int, error) {
	text := t.buffer + string(p)
	parts := strings.Split(text, "\n")
	if len(parts) == 0 {
		return len(p), nil
	}

	t.buffer = parts[len(parts)-1]
	lines := parts[:len(parts)-1]

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, line := range lines {
		if len(t.lines) >= t.maxLines {
			t.lines = t.lines[1:]
		}
		t.lines = append(t.lines, line)
	}
	return len(p), nil
}

func (t *tailWriter) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := append([]string{}, t.lines...)
	if strings.TrimSpace(t.buffer) != "" {
		lines = append(lines, t.buffer)
	}
	return strings.Join(lines, "\n")
}
