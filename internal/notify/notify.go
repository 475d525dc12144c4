// Package notify delivers short-lived user notifications: the terminal
// counterpart of a toast.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Level is the severity of a notification.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Danger  Level = "danger"
)

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a function to the Notifier interface.
type Func func(level Level, message string)

// Notify calls f.
func (f Func) Notify(level Level, message string) { f(level, message) }

// Discard drops every notification.
var Discard Notifier = Func(func(Level, string) {})

var styles = map[Level]lipgloss.Style{
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#198754")).Bold(true),
	Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("#0dcaf0")),
	Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#ffc107")).Bold(true),
	Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("#dc3545")).Bold(true),
}

var icons = map[Level]string{
	Success: "✅",
	Info:    "ℹ️ ",
	Warning: "⚠️ ",
	Danger:  "❌",
}

// Format renders a notification as one styled line.
func Format(level Level, message string) string {
	style, ok := styles[level]
	if !ok {
		style = styles[Info]
	}
	return fmt.Sprintf("%s %s", icons[level], style.Render(message))
}

// Printer writes styled notifications to a writer (stderr by default).
type Printer struct {
	mu  sync.Mutex
	Out io.Writer
}

// NewPrinter returns a Printer writing to stderr.
func NewPrinter() *Printer {
	return &Printer{Out: os.Stderr}
}

// Notify implements Notifier.
func (p *Printer) Notify(level Level, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintln(out, Format(level, message))
}

// Entry is one recorded notification.
type Entry struct {
	Level   Level
	Message string
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Notify implements Notifier.
func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Message: message})
	r.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[len(r.entries)-1], true
}

// Count returns how many notifications of the level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
