package flow

import (
	"slices"
	"sync"
)

// Log collects the lines nodes write through Node.Logf. Logs start enabled.
type Log struct {
	mu      sync.Mutex
	title   string
	lines   []string
	enabled bool
}

func NewLog(title string) *Log {
	return &Log{title: title, enabled: true}
}

func (l *Log) Title() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.title
}

func (l *Log) SetTitle(title string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.title = title
}

// Write appends a line. Disabled logs drop it.
func (l *Log) Write(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enabled {
		l.lines = append(l.lines, line)
	}
}

func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.lines)
}

func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}

func (l *Log) Enable()  { l.setEnabled(true) }
func (l *Log) Disable() { l.setEnabled(false) }

func (l *Log) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *Log) setEnabled(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = v
}
