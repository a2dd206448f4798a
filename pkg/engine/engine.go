// Package engine assembles the automation pieces into one facade: it
// builds the store and collaborators from configuration, registers the
// built-in handlers and their trigger declarations, and exposes the
// lifecycle entry points the host calls around record writes.
package engine

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/automat/pkg/config"
	"github.com/arthur-debert/automat/pkg/directory"
	"github.com/arthur-debert/automat/pkg/dispatch"
	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/feedback"
	"github.com/arthur-debert/automat/pkg/handler"
	"github.com/arthur-debert/automat/pkg/handlers/registry"
	"github.com/arthur-debert/automat/pkg/logging"
	"github.com/arthur-debert/automat/pkg/mail"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/sequence"
	"github.com/arthur-debert/automat/pkg/storage"
	"github.com/arthur-debert/automat/pkg/storage/memory"
	"github.com/arthur-debert/automat/pkg/storage/sqlite"
	"github.com/arthur-debert/automat/pkg/trigger"
)

// Engine wires the trigger registry, handler set, dispatcher, and
// execution context over one record store
type Engine struct {
	cfg        *config.Config
	store      storage.Store
	registry   *trigger.Registry
	handlers   *registry.Set
	dispatcher *dispatch.Dispatcher
	env        *handler.Context
	logger     zerolog.Logger
}

type options struct {
	store     storage.Store
	directory directory.Directory
	mail      mail.Sender
	feedback  feedback.Emitter
}

// Option overrides a collaborator the engine would otherwise build from
// configuration
type Option func(*options)

// WithStore supplies the record store, bypassing the configured backend
func WithStore(s storage.Store) Option {
	return func(o *options) { o.store = s }
}

// WithDirectory supplies the user directory
func WithDirectory(d directory.Directory) Option {
	return func(o *options) { o.directory = d }
}

// WithMail supplies the notification sender
func WithMail(s mail.Sender) Option {
	return func(o *options) { o.mail = s }
}

// WithFeedback supplies the UI feedback emitter
func WithFeedback(e feedback.Emitter) Option {
	return func(o *options) { o.feedback = e }
}

// New builds an engine from configuration. The built-in handlers are
// registered along with their trigger declarations; a configured
// trigger file, if any, is loaded on top.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = openStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	dir := o.directory
	if dir == nil {
		dir = directory.NewStatic()
	}
	sender := o.mail
	if sender == nil {
		sender = mail.LogSender{}
	}
	emitter := o.feedback
	if emitter == nil {
		emitter = feedback.Nop{}
	}

	alloc, err := sequence.New(store, sequence.Mode(cfg.Sequence.Mode))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		store:    store,
		registry: trigger.NewRegistry(),
		handlers: registry.Default(),
		env:      handler.NewContext(store, dir, sender, emitter, alloc, cfg.Frontend.URL),
		logger:   logging.GetLogger("engine"),
	}
	e.dispatcher = dispatch.New(e.registry, e.handlers)

	for _, h := range e.handlers.All() {
		for _, decl := range h.Triggers() {
			if err := e.registry.Register(decl); err != nil {
				return nil, err
			}
		}
	}

	if cfg.Triggers.File != "" {
		if err := e.LoadTriggerFile(cfg.Triggers.File); err != nil {
			return nil, err
		}
	}

	e.logger.Info().
		Int("handlers", e.handlers.Count()).
		Int("triggers", e.registry.Count()).
		Str("storage", cfg.Storage.Backend).
		Msg("Engine ready")
	return e, nil
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.Open(cfg.Storage.Path)
	}
	return nil, errors.Newf(errors.ErrConfigParse, "unknown storage backend %q", cfg.Storage.Backend)
}

// Store returns the engine's record store
func (e *Engine) Store() storage.Store { return e.store }

// Handlers returns the engine's handler set
func (e *Engine) Handlers() *registry.Set { return e.handlers }

// Triggers returns the registered trigger declarations
func (e *Engine) Triggers() []trigger.Declaration { return e.registry.All() }

// RegisterHandler adds a handler and registers its trigger declarations
func (e *Engine) RegisterHandler(h handler.Handler) error {
	if err := e.handlers.Add(h); err != nil {
		return err
	}
	for _, decl := range h.Triggers() {
		if err := e.registry.Register(decl); err != nil {
			return err
		}
	}
	return nil
}

// LoadTriggerFile registers declarations from a YAML trigger file.
// Every declaration must name a registered handler.
func (e *Engine) LoadTriggerFile(path string) error {
	decls, err := trigger.LoadFile(path)
	if err != nil {
		return err
	}
	for _, decl := range decls {
		if _, err := e.handlers.Get(decl.Handler); err != nil {
			return errors.Wrapf(err, errors.ErrTriggerInvalid,
				"trigger file %s names unknown handler %q", path, decl.Handler)
		}
		if err := e.registry.Register(decl); err != nil {
			return err
		}
	}
	e.logger.Debug().Str("path", path).Int("count", len(decls)).Msg("Loaded trigger file")
	return nil
}

// Fire dispatches one phase of one event against a record snapshot
func (e *Engine) Fire(ctx context.Context, phase trigger.Phase,
	event trigger.EventKind, rec *record.Record) dispatch.Outcome {
	return e.dispatcher.Dispatch(ctx, e.env, phase, event, rec)
}

// FireAndSave runs the full lifecycle around persisting a record: the
// before phase (whose handlers may mutate or abort the write), the save
// itself, then the after phase on the persisted record. It returns the
// persisted record.
func (e *Engine) FireAndSave(ctx context.Context, event trigger.EventKind,
	rec *record.Record) (*record.Record, error) {

	out := e.Fire(ctx, trigger.PhaseBefore, event, rec)
	if out.Status == dispatch.StatusFailed {
		return nil, out.Err
	}

	saved, err := e.store.Save(ctx, out.Record)
	if err != nil {
		return nil, err
	}

	after := e.Fire(ctx, trigger.PhaseAfter, event, saved)
	if after.Status == dispatch.StatusFailed {
		// the write already happened; surface the hook failure as-is
		return saved, after.Err
	}
	return saved, nil
}

// Invoke runs a named manual action against a record. A registered
// manual trigger must bind the handler to the record's kind and
// namespace; declarations loaded from a trigger file count the same as
// the handler's own.
func (e *Engine) Invoke(ctx context.Context, handlerName string, rec *record.Record) error {
	h, err := e.handlers.Get(handlerName)
	if err != nil {
		return err
	}

	matched := false
	for _, decl := range e.registry.Match(trigger.PhaseManual, "", rec.Kind, rec.Namespace) {
		if decl.Handler == handlerName {
			matched = true
			break
		}
	}
	if !matched {
		return errors.Newf(errors.ErrTriggerInvalid,
			"handler %q declares no manual action for %s records in namespace %s",
			handlerName, rec.Kind, rec.Namespace)
	}

	evt := &handler.Event{Phase: trigger.PhaseManual, Record: rec}
	_, err = h.Exec(ctx, evt, e.env)
	return err
}

// Close releases the store if it holds external resources
func (e *Engine) Close() error {
	if c, ok := e.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
