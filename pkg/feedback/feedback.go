// Package feedback defines the UI feedback collaborator: purely
// observational success/warning messages surfaced to the invoking user.
// Feedback never affects control flow.
package feedback

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Kind classifies a feedback message
type Kind string

const (
	Success Kind = "success"
	Warning Kind = "warning"
)

// Emitter surfaces feedback messages. Emit has no return value the
// engine consumes.
type Emitter interface {
	Emit(kind Kind, message string)
}

// Term prints feedback to the terminal via pterm, dropping color when
// stdout is not a TTY
type Term struct{}

var _ Emitter = Term{}

// NewTerm creates a terminal emitter
func NewTerm() Term {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		pterm.DisableColor()
	}
	return Term{}
}

// Emit prints the message styled by kind
func (Term) Emit(kind Kind, message string) {
	switch kind {
	case Warning:
		pterm.Warning.Println(message)
	default:
		pterm.Success.Println(message)
	}
}

// Nop discards all feedback
type Nop struct{}

var _ Emitter = Nop{}

// Emit does nothing
func (Nop) Emit(Kind, string) {}

// Recorder captures emitted feedback for tests
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one captured feedback message
type Entry struct {
	Kind    Kind
	Message string
}

var _ Emitter = (*Recorder)(nil)

// Emit records the message
func (r *Recorder) Emit(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Kind: kind, Message: message})
}

// Entries returns the captured feedback in emit order
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
