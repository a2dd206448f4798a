// Package recordlabel derives a display label for contact records from
// their own name fields plus the name of the referenced account.
package recordlabel

import (
	"context"
	"fmt"

	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/handler"
	"github.com/arthur-debert/automat/pkg/logging"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/trigger"
	"github.com/rs/zerolog"
)

// HandlerName is the name of the contact labeling handler
const HandlerName = "contact-label"

// FieldRecordLabel is the field the derived label is written to
const FieldRecordLabel = "RecordLabel"

// Handler computes the label on create and update. A missing account
// reference degrades gracefully: the label keeps its locally derivable
// portion instead of aborting the save.
type Handler struct {
	logger zerolog.Logger
}

var _ handler.Handler = (*Handler)(nil)

// New creates the contact labeling handler
func New() *Handler {
	return &Handler{logger: logging.GetLogger("handlers.recordlabel")}
}

// Name returns the handler's registry name
func (h *Handler) Name() string { return HandlerName }

// Description returns what the handler does
func (h *Handler) Description() string {
	return "Sets the display label for a contact record"
}

// Triggers declares the firing conditions
func (h *Handler) Triggers() []trigger.Declaration {
	return []trigger.Declaration{{
		Phase:     trigger.PhaseBefore,
		Events:    []trigger.EventKind{trigger.EventCreate, trigger.EventUpdate},
		Kind:      "Contact",
		Namespace: "crm",
		Handler:   HandlerName,
	}}
}

// Exec derives the label and writes it onto the record
func (h *Handler) Exec(ctx context.Context, evt *handler.Event, env *handler.Context) (*record.Record, error) {
	rec := evt.Record

	firstName := rec.String("FirstName")
	lastName := rec.String("LastName")

	var label string
	switch {
	case firstName != "" && lastName != "":
		label = firstName + " " + lastName
	case firstName != "":
		label = firstName
	case lastName != "":
		label = lastName
	}

	if accountID := rec.String("AccountId"); accountID != "" {
		account, err := env.FindByID(ctx, accountID, "Account")
		switch {
		case errors.IsErrorCode(err, errors.ErrNotFound):
			h.logger.Debug().Str("accountId", accountID).Msg("Referenced account missing, keeping partial label")
		case err != nil:
			return nil, err
		default:
			if name := account.String("AccountName"); name != "" {
				label = fmt.Sprintf("%s (%s)", label, name)
			}
		}
	}

	return rec.Set(FieldRecordLabel, label), nil
}
