// Package approval implements the quote approval workflow: a manual
// action submitting a quote for review, and a manual action approving
// it. Both are guarded state transitions: invoked on a quote in the
// wrong source state they emit a warning and do nothing, which is an
// expected no-op rather than a failure.
package approval

import (
	"context"
	"fmt"

	"github.com/arthur-debert/automat/pkg/handler"
	"github.com/arthur-debert/automat/pkg/logging"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/trigger"
	"github.com/rs/zerolog"
)

// Handler names for the two workflow steps
const (
	SubmitHandlerName  = "quote-submit-for-approval"
	ApproveHandlerName = "quote-approve"
)

// Quote status values the workflow moves between
const (
	StatusDraft       = "Draft"
	StatusNeedsReview = "Needs Review"
	StatusInReview    = "In Review"
	StatusApproved    = "Approved"
)

// FieldStatus is the quote's status field
const FieldStatus = "Status"

// SubmitHandler moves a quote from Draft or Needs Review into In Review
// and notifies the quote's creator.
type SubmitHandler struct {
	logger zerolog.Logger
}

var _ handler.Handler = (*SubmitHandler)(nil)

// NewSubmit creates the submit-for-approval handler
func NewSubmit() *SubmitHandler {
	return &SubmitHandler{logger: logging.GetLogger("handlers.approval.submit")}
}

// Name returns the handler's registry name
func (h *SubmitHandler) Name() string { return SubmitHandlerName }

// Description returns what the handler does
func (h *SubmitHandler) Description() string {
	return "Changes the status of a quote to In Review and informs the user who created it"
}

// Triggers declares the firing conditions
func (h *SubmitHandler) Triggers() []trigger.Declaration {
	return []trigger.Declaration{{
		Phase:     trigger.PhaseManual,
		Kind:      "Quote",
		Namespace: "crm",
		Handler:   SubmitHandlerName,
		UI:        map[string]string{"app": "compose"},
	}}
}

// Exec performs the guarded transition, then mails the creator
func (h *SubmitHandler) Exec(ctx context.Context, evt *handler.Event, env *handler.Context) (*record.Record, error) {
	rec := evt.Record

	status := rec.String(FieldStatus)
	if status != StatusDraft && status != StatusNeedsReview {
		env.Warning("A quote needs to have the status Draft or Needs Review in order to be sent for approval")
		return nil, nil
	}

	rec.Set(FieldStatus, StatusInReview)
	saved, err := env.Save(ctx, rec)
	if err != nil {
		return nil, err
	}

	if err := notifyCreator(ctx, env, saved,
		fmt.Sprintf("Quote %q needs approval", saved.String("Name")),
		"The following quote needs approval"); err != nil {
		return nil, err
	}

	env.Success("The quote has been sent for approval.")
	return saved, nil
}

// ApproveHandler moves a quote from In Review into Approved and
// notifies the quote's creator.
type ApproveHandler struct {
	logger zerolog.Logger
}

var _ handler.Handler = (*ApproveHandler)(nil)

// NewApprove creates the approve handler
func NewApprove() *ApproveHandler {
	return &ApproveHandler{logger: logging.GetLogger("handlers.approval.approve")}
}

// Name returns the handler's registry name
func (h *ApproveHandler) Name() string { return ApproveHandlerName }

// Description returns what the handler does
func (h *ApproveHandler) Description() string {
	return "Changes the status of a quote to Approved and informs the user who created it"
}

// Triggers declares the firing conditions
func (h *ApproveHandler) Triggers() []trigger.Declaration {
	return []trigger.Declaration{{
		Phase:     trigger.PhaseManual,
		Kind:      "Quote",
		Namespace: "crm",
		Handler:   ApproveHandlerName,
		UI:        map[string]string{"app": "compose"},
	}}
}

// Exec performs the guarded transition, then mails the creator.
// Side effects run in a fixed order: save, directory lookup, mail,
// success feedback. A failure partway leaves the earlier effects in
// place; nothing is rolled back.
func (h *ApproveHandler) Exec(ctx context.Context, evt *handler.Event, env *handler.Context) (*record.Record, error) {
	rec := evt.Record

	if rec.String(FieldStatus) != StatusInReview {
		env.Warning("A quote needs to have the status In Review in order to be approved.")
		return nil, nil
	}

	rec.Set(FieldStatus, StatusApproved)
	saved, err := env.Save(ctx, rec)
	if err != nil {
		return nil, err
	}

	if err := notifyCreator(ctx, env, saved,
		fmt.Sprintf("Quote %q has been approved", saved.String("Name")),
		"The following quote has been approved"); err != nil {
		return nil, err
	}

	env.Success("The quote has been approved and the quote owner has been notified via email.")
	return saved, nil
}

// notifyCreator looks up the quote's creator and mails them a link to
// the record
func notifyCreator(ctx context.Context, env *handler.Context, rec *record.Record, subject, intro string) error {
	user, err := env.LookupUser(ctx, rec.CreatedBy)
	if err != nil {
		return err
	}

	html := fmt.Sprintf("%s: <br><br><a href=%q>%s</a>",
		intro, env.RecordLink(rec), rec.String("Name"))
	return env.SendMail(ctx, user.Email, subject, html)
}
