// Package dispatch runs all trigger declarations matching a fired event,
// in registration order, threading the possibly mutated record snapshot
// from handler to handler and short-circuiting on the first failure.
package dispatch

import (
	"context"

	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/handler"
	"github.com/arthur-debert/automat/pkg/logging"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/trigger"
	"github.com/rs/zerolog"
)

// Status tags a dispatch outcome
type Status string

const (
	// StatusContinue carries the final snapshot of a before-phase
	// dispatch; the host proceeds to persist it
	StatusContinue Status = "continue"

	// StatusDone is terminal success for after/manual dispatches
	StatusDone Status = "done"

	// StatusFailed carries the failure that aborted the dispatch
	StatusFailed Status = "failed"
)

// Outcome is the tagged result of one dispatch. Before-phase dispatches
// yield Continue with a record; after/manual dispatches yield Done;
// any handler failure yields Failed. The variants are deliberately
// distinct so a before-hook result cannot be mistaken for a terminal one.
type Outcome struct {
	Status Status
	Record *record.Record
	Err    error
}

// Continue builds a before-phase outcome carrying the record to persist
func Continue(rec *record.Record) Outcome {
	return Outcome{Status: StatusContinue, Record: rec}
}

// Done builds a terminal success outcome
func Done() Outcome {
	return Outcome{Status: StatusDone}
}

// Failed builds a failure outcome
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// HandlerSource resolves handler names from trigger declarations to
// executable handlers
type HandlerSource interface {
	Get(name string) (handler.Handler, error)
}

// Dispatcher owns the lifecycle of a single dispatch call end-to-end.
// It holds no state across calls; the registry and handler source are
// read-mostly and shared.
type Dispatcher struct {
	registry *trigger.Registry
	handlers HandlerSource
	logger   zerolog.Logger
}

// New creates a dispatcher over a declaration registry and handler source
func New(registry *trigger.Registry, handlers HandlerSource) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		handlers: handlers,
		logger:   logging.GetLogger("dispatch"),
	}
}

// Dispatch fires one event: resolves matching declarations, runs their
// handlers in registration order inside the execution context, and
// aggregates the result. Each handler sees the snapshot as left by the
// previous one; the first error stops the remaining handlers.
func (d *Dispatcher) Dispatch(ctx context.Context, env *handler.Context,
	phase trigger.Phase, event trigger.EventKind, rec *record.Record) Outcome {

	matches := d.registry.Match(phase, event, rec.Kind, rec.Namespace)
	d.logger.Debug().
		Str("phase", string(phase)).
		Str("event", string(event)).
		Str("kind", rec.Kind).
		Str("namespace", rec.Namespace).
		Int("matches", len(matches)).
		Msg("Dispatching event")

	current := rec
	for _, decl := range matches {
		h, err := d.handlers.Get(decl.Handler)
		if err != nil {
			return Failed(errors.Wrapf(err, errors.ErrHandlerNotFound,
				"declaration names unknown handler %q", decl.Handler))
		}

		evt := &handler.Event{
			Phase:  phase,
			Kind:   event,
			Record: current,
		}
		out, err := h.Exec(ctx, evt, env)
		if err != nil {
			d.logger.Debug().
				Str("handler", h.Name()).
				Err(err).
				Msg("Handler failed, aborting dispatch")
			return Failed(err)
		}
		if out != nil {
			current = out
		}
	}

	if phase == trigger.PhaseBefore {
		return Continue(current)
	}
	return Done()
}
