package handler

import (
	"context"
	"fmt"

	"github.com/arthur-debert/automat/pkg/directory"
	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/feedback"
	"github.com/arthur-debert/automat/pkg/logging"
	"github.com/arthur-debert/automat/pkg/mail"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/sequence"
	"github.com/arthur-debert/automat/pkg/storage"
	"github.com/rs/zerolog"
)

// Context bundles the capabilities a handler may use while executing.
// Every call blocks until its collaborator answers and propagates the
// collaborator's failure unchanged; the engine imposes no timeout of its
// own.
type Context struct {
	store     storage.Store
	directory directory.Directory
	mail      mail.Sender
	feedback  feedback.Emitter
	sequence  *sequence.Allocator

	// BaseURL is the frontend base used when building record links for
	// notification bodies
	BaseURL string

	logger zerolog.Logger
}

// NewContext binds the collaborators into an execution context
func NewContext(store storage.Store, dir directory.Directory, sender mail.Sender,
	emitter feedback.Emitter, alloc *sequence.Allocator, baseURL string) *Context {
	return &Context{
		store:     store,
		directory: dir,
		mail:      sender,
		feedback:  emitter,
		sequence:  alloc,
		BaseURL:   baseURL,
		logger:    logging.GetLogger("handler.context"),
	}
}

// FindByID reads a record from the store
func (c *Context) FindByID(ctx context.Context, id, kind string) (*record.Record, error) {
	return c.store.FindByID(ctx, id, kind)
}

// FindMany reads all records of the kind matching the filter expression
func (c *Context) FindMany(ctx context.Context, filter, kind string) ([]*record.Record, error) {
	return c.store.FindMany(ctx, filter, kind)
}

// FindLast reads the most recently inserted record of the kind
func (c *Context) FindLast(ctx context.Context, kind string) (*record.Record, error) {
	return c.store.FindLast(ctx, kind)
}

// Save persists a record: insert when its ID is unset, update otherwise
func (c *Context) Save(ctx context.Context, rec *record.Record) (*record.Record, error) {
	return c.store.Save(ctx, rec)
}

// NextNumber allocates the next integer for the scope and persists the
// incremented counter
func (c *Context) NextNumber(ctx context.Context, scope string) (int, error) {
	if c.sequence == nil {
		return 0, errors.New(errors.ErrInternal, "no sequence allocator configured")
	}
	return c.sequence.Next(ctx, scope)
}

// LookupUser resolves a user ID through the directory collaborator
func (c *Context) LookupUser(ctx context.Context, id string) (*directory.User, error) {
	if c.directory == nil {
		return nil, errors.New(errors.ErrDirectoryLookup, "no directory configured")
	}
	return c.directory.LookupUser(ctx, id)
}

// SendMail delivers a notification through the mail collaborator. The
// call is awaited; a transport failure propagates to the dispatch.
func (c *Context) SendMail(ctx context.Context, to, subject, html string) error {
	if c.mail == nil {
		return errors.New(errors.ErrMailSend, "no mail sender configured")
	}
	err := c.mail.Send(ctx, mail.Message{To: to, Subject: subject, HTML: html})
	if err != nil {
		return errors.Wrapf(err, errors.ErrMailSend, "failed to send mail to %s", to)
	}
	return nil
}

// Success emits success feedback. Observational only; never affects
// control flow.
func (c *Context) Success(message string) {
	if c.feedback != nil {
		c.feedback.Emit(feedback.Success, message)
	}
}

// Warning emits warning feedback. Observational only; never affects
// control flow.
func (c *Context) Warning(message string) {
	if c.feedback != nil {
		c.feedback.Emit(feedback.Warning, message)
	}
}

// RecordLink builds the frontend edit link for a record, used in
// notification bodies
func (c *Context) RecordLink(rec *record.Record) string {
	base := c.BaseURL
	if base == "" {
		base = "http://localhost"
	}
	return fmt.Sprintf("%s/ns/%s/record/%s/edit", base, rec.Namespace, rec.ID)
}
