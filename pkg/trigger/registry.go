package trigger

import (
	"sync"

	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/logging"
)

// Registry holds the set of registered trigger declarations. It is
// read-mostly state: populated at startup, queried on every dispatch.
// Match returns declarations in registration order so that handler
// execution order is deterministic and reproducible across runs.
type Registry struct {
	mu           sync.RWMutex
	declarations []Declaration
}

// NewRegistry creates an empty declaration registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register validates a declaration and appends it to the registry
func (r *Registry) Register(decl Declaration) error {
	if !decl.Phase.IsValid() {
		return errors.Newf(errors.ErrTriggerInvalid, "unknown phase %q", decl.Phase)
	}
	if decl.Handler == "" {
		return errors.New(errors.ErrTriggerInvalid, "declaration has no handler")
	}
	if decl.Phase == PhaseManual {
		if len(decl.Events) > 0 {
			return errors.Newf(errors.ErrTriggerInvalid,
				"manual declaration for handler %q must not list events", decl.Handler)
		}
	} else {
		if len(decl.Events) == 0 {
			return errors.Newf(errors.ErrTriggerInvalid,
				"%s declaration for handler %q lists no events", decl.Phase, decl.Handler)
		}
		for _, e := range decl.Events {
			if !e.IsValid() {
				return errors.Newf(errors.ErrTriggerInvalid,
					"unknown event kind %q for handler %q", e, decl.Handler)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.declarations = append(r.declarations, decl)

	logger := logging.GetLogger("trigger.registry")
	logger.Debug().
		Str("phase", string(decl.Phase)).
		Str("kind", decl.Kind).
		Str("namespace", decl.Namespace).
		Str("handler", decl.Handler).
		Msg("Registered trigger declaration")
	return nil
}

// Match returns all declarations firing for the given event, in
// registration order. Zero matches is a legal result.
func (r *Registry) Match(phase Phase, event EventKind, kind, namespace string) []Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []Declaration
	for _, decl := range r.declarations {
		if decl.Matches(phase, event, kind, namespace) {
			matches = append(matches, decl)
		}
	}
	return matches
}

// All returns every registered declaration in registration order
func (r *Registry) All() []Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Declaration, len(r.declarations))
	copy(out, r.declarations)
	return out
}

// Count returns the number of registered declarations
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.declarations)
}
