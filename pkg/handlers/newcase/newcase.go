// Package newcase implements the manual action creating a support case
// from an account record, copying the account's owner and primary
// contact details onto the new case.
package newcase

import (
	"context"
	"fmt"

	"github.com/arthur-debert/automat/pkg/handler"
	"github.com/arthur-debert/automat/pkg/handlers/casenumber"
	"github.com/arthur-debert/automat/pkg/logging"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/trigger"
	"github.com/rs/zerolog"
)

// HandlerName is the name of the case creation handler
const HandlerName = "account-create-case"

// Handler creates a new case record from an account
type Handler struct {
	logger zerolog.Logger
}

var _ handler.Handler = (*Handler)(nil)

// New creates the case creation handler
func New() *Handler {
	return &Handler{logger: logging.GetLogger("handlers.newcase")}
}

// Name returns the handler's registry name
func (h *Handler) Name() string { return HandlerName }

// Description returns what the handler does
func (h *Handler) Description() string {
	return "Creates a new case from an account, prefilled with the account's contact details"
}

// Triggers declares the firing conditions
func (h *Handler) Triggers() []trigger.Declaration {
	return []trigger.Declaration{{
		Phase:     trigger.PhaseManual,
		Kind:      "Account",
		Namespace: "crm",
		Handler:   HandlerName,
		UI:        map[string]string{"app": "compose"},
	}}
}

// Exec allocates a case number, resolves the account's contact, and
// persists the new case
func (h *Handler) Exec(ctx context.Context, evt *handler.Event, env *handler.Context) (*record.Record, error) {
	account := evt.Record

	n, err := env.NextNumber(ctx, casenumber.Scope)
	if err != nil {
		return nil, err
	}

	contacts, err := env.FindMany(ctx, fmt.Sprintf("AccountId = %s", account.ID), "Contact")
	if err != nil {
		return nil, err
	}

	newCase := record.New("Case", account.Namespace).
		Set("OwnerId", account.String("OwnerId")).
		Set("Subject", "(no subject)").
		Set("AccountId", account.ID).
		Set("Status", "New").
		Set("Priority", "Low").
		Set(casenumber.FieldCaseNumber, fmt.Sprintf("%08d", n))

	if len(contacts) > 0 {
		contact := contacts[0]
		newCase.
			Set("ContactId", contact.ID).
			Set("SuppliedName", contact.String("FirstName")+" "+contact.String("LastName")).
			Set("SuppliedEmail", contact.String("Email")).
			Set("SuppliedPhone", contact.String("Phone"))
	}

	saved, err := env.Save(ctx, newCase)
	if err != nil {
		return nil, err
	}

	h.logger.Debug().Str("caseId", saved.ID).Str("accountId", account.ID).Msg("Created case from account")
	env.Success("The new case has been created.")
	return saved, nil
}
