// Package casenumber assigns sequential case numbers to new case records
// before they are persisted.
package casenumber

import (
	"context"

	"github.com/arthur-debert/automat/pkg/handler"
	"github.com/arthur-debert/automat/pkg/logging"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/trigger"
	"github.com/rs/zerolog"
)

// HandlerName is the name of the case numbering handler
const HandlerName = "case-number"

// Scope is the counter scope case numbers are allocated from
const Scope = "case"

// FieldCaseNumber is the field the allocated number is written to
const FieldCaseNumber = "CaseNumber"

// Handler assigns the next case number on create. The counter update is
// persisted by the allocator in a separate save from the case record
// itself; a failure between the two leaves the counter incremented with
// no matching case.
type Handler struct {
	logger zerolog.Logger
}

var _ handler.Handler = (*Handler)(nil)

// New creates the case numbering handler
func New() *Handler {
	return &Handler{logger: logging.GetLogger("handlers.casenumber")}
}

// Name returns the handler's registry name
func (h *Handler) Name() string { return HandlerName }

// Description returns what the handler does
func (h *Handler) Description() string {
	return "Sets the case number to the next number in the case counter"
}

// Triggers declares the firing conditions
func (h *Handler) Triggers() []trigger.Declaration {
	return []trigger.Declaration{{
		Phase:     trigger.PhaseBefore,
		Events:    []trigger.EventKind{trigger.EventCreate},
		Kind:      "Case",
		Namespace: "crm",
		Handler:   HandlerName,
	}}
}

// Exec allocates the next case number and writes it onto the record
func (h *Handler) Exec(ctx context.Context, evt *handler.Event, env *handler.Context) (*record.Record, error) {
	n, err := env.NextNumber(ctx, Scope)
	if err != nil {
		return nil, err
	}

	h.logger.Debug().Int("caseNumber", n).Msg("Assigned case number")
	return evt.Record.Set(FieldCaseNumber, n), nil
}
