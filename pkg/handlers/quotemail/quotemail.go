// Package quotemail implements the manual action mailing a quote to its
// primary contact, with the quote's line items rendered as an HTML table.
package quotemail

import (
	"context"
	"fmt"
	"strings"

	"github.com/arthur-debert/automat/pkg/handler"
	"github.com/arthur-debert/automat/pkg/logging"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/trigger"
	"github.com/rs/zerolog"
)

// HandlerName is the name of the quote mailing handler
const HandlerName = "quote-send-to-contact"

// FieldEmail is the quote field holding the primary contact's address
const FieldEmail = "Email"

// lineItemFields are the columns of the line items table, in order
var lineItemFields = []string{"ProductId", "Quantity", "UnitPrice", "Discount", "Subtotal", "TotalPrice"}

// Handler mails the quote to its primary contact
type Handler struct {
	logger zerolog.Logger
}

var _ handler.Handler = (*Handler)(nil)

// New creates the quote mailing handler
func New() *Handler {
	return &Handler{logger: logging.GetLogger("handlers.quotemail")}
}

// Name returns the handler's registry name
func (h *Handler) Name() string { return HandlerName }

// Description returns what the handler does
func (h *Handler) Description() string {
	return "Sends the quote with its line items to the quote's primary contact"
}

// Triggers declares the firing conditions
func (h *Handler) Triggers() []trigger.Declaration {
	return []trigger.Declaration{{
		Phase:     trigger.PhaseManual,
		Kind:      "Quote",
		Namespace: "crm",
		Handler:   HandlerName,
		UI:        map[string]string{"app": "compose"},
	}}
}

// Exec collects the quote's line items and mails them to the contact.
// A quote without an email address is a guarded no-op, not a failure.
func (h *Handler) Exec(ctx context.Context, evt *handler.Event, env *handler.Context) (*record.Record, error) {
	rec := evt.Record

	email := rec.String(FieldEmail)
	if email == "" {
		env.Warning("A quote needs an email address in order to be sent to the primary contact.")
		return nil, nil
	}

	items, err := env.FindMany(ctx, fmt.Sprintf("QuoteId = %s", rec.ID), "QuoteLineItem")
	if err != nil {
		return nil, err
	}

	subject := fmt.Sprintf("Quote %q", rec.String("Name"))
	if err := env.SendMail(ctx, email, subject, renderBody(rec, items)); err != nil {
		return nil, err
	}

	h.logger.Debug().Str("quoteId", rec.ID).Int("lineItems", len(items)).Msg("Sent quote to primary contact")
	env.Success("The quote has been sent to the primary contact.")
	return nil, nil
}

// renderBody builds the mail HTML: an intro line plus a table with one
// row per line item
func renderBody(quote *record.Record, items []*record.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please find quote %q below:<br><br>", quote.String("Name"))

	b.WriteString("<table><tr>")
	for _, f := range lineItemFields {
		fmt.Fprintf(&b, "<th>%s</th>", f)
	}
	b.WriteString("</tr>")

	for _, item := range items {
		b.WriteString("<tr>")
		for _, f := range lineItemFields {
			fmt.Fprintf(&b, "<td>%s</td>", item.String(f))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}
