// Package trigger defines declarative trigger declarations and the
// registry that matches them against fired events. A declaration binds a
// firing phase, the lifecycle events it listens to, and an equality
// predicate on record kind and namespace to a named handler.
package trigger

// Phase identifies when a declaration fires relative to persistence
type Phase string

const (
	// PhaseBefore fires before a record is persisted; its handlers may
	// mutate the record or abort the persisting operation
	PhaseBefore Phase = "before"

	// PhaseAfter fires after a record has been persisted
	PhaseAfter Phase = "after"

	// PhaseManual fires only on explicit user action, never on
	// lifecycle events
	PhaseManual Phase = "manual"
)

// IsValid reports whether the phase is one of the known phases
func (p Phase) IsValid() bool {
	switch p {
	case PhaseBefore, PhaseAfter, PhaseManual:
		return true
	}
	return false
}

// EventKind identifies a record lifecycle event
type EventKind string

const (
	EventCreate EventKind = "create"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// IsValid reports whether the event kind is one of the known kinds
func (e EventKind) IsValid() bool {
	switch e {
	case EventCreate, EventUpdate, EventDelete:
		return true
	}
	return false
}

// Declaration binds a firing condition to a handler by name.
// UI metadata is presentation-only and never participates in matching.
type Declaration struct {
	// Phase determines when the declaration fires
	Phase Phase

	// Events lists the lifecycle events the declaration listens to.
	// Ignored (and expected empty) for manual-phase declarations.
	Events []EventKind

	// Kind constrains matching to records of this kind; empty matches any
	Kind string

	// Namespace constrains matching to this namespace; empty matches any
	Namespace string

	// Handler names the handler to invoke on a match
	Handler string

	// UI carries free-form presentation metadata
	UI map[string]string
}

// Matches reports whether the declaration fires for the given event.
// Event kind is ignored for manual-phase declarations.
func (d Declaration) Matches(phase Phase, event EventKind, kind, namespace string) bool {
	if d.Phase != phase {
		return false
	}
	if d.Kind != "" && d.Kind != kind {
		return false
	}
	if d.Namespace != "" && d.Namespace != namespace {
		return false
	}
	if d.Phase == PhaseManual {
		return true
	}
	for _, e := range d.Events {
		if e == event {
			return true
		}
	}
	return false
}
