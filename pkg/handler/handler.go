// Package handler defines the unit of business logic bound to a trigger
// declaration, the event it receives, and the execution context exposing
// record, directory, mail, feedback, and sequence capabilities to it.
package handler

import (
	"context"

	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/trigger"
)

// Event is one fired lifecycle event or manual invocation
type Event struct {
	// Phase the event fired in
	Phase trigger.Phase

	// Kind of lifecycle event; empty for manual invocations
	Kind trigger.EventKind

	// Record is the entity snapshot the event fired on. Earlier handlers
	// in the same dispatch may already have mutated it.
	Record *record.Record

	// InvokedBy is the ID of the user behind a manual invocation, when
	// known
	InvokedBy string
}

// Handler is a unit of business logic. Exec receives the firing event
// and the execution context and returns the possibly mutated record.
// Returning nil leaves the dispatch's current snapshot unchanged; that
// is an expected no-op, not a failure. Errors abort the remaining
// dispatch.
type Handler interface {
	// Name returns the unique name the handler registers under
	Name() string

	// Description returns a human-readable description of what the
	// handler does
	Description() string

	// Triggers returns the declarations this handler fires on, bound to
	// its own name
	Triggers() []trigger.Declaration

	// Exec runs the handler's logic
	Exec(ctx context.Context, evt *Event, env *Context) (*record.Record, error)
}
