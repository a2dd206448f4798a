// Package registry holds the set of executable handlers, resolved by
// name from trigger declarations.
package registry

import (
	"sync"

	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/handler"
	"github.com/arthur-debert/automat/pkg/handlers/approval"
	"github.com/arthur-debert/automat/pkg/handlers/casenumber"
	"github.com/arthur-debert/automat/pkg/handlers/newcase"
	"github.com/arthur-debert/automat/pkg/handlers/quotemail"
	"github.com/arthur-debert/automat/pkg/handlers/recordlabel"
)

// Set is a named collection of handlers. It satisfies the dispatcher's
// handler source and preserves insertion order for listing.
type Set struct {
	mu    sync.RWMutex
	items map[string]handler.Handler
	order []string
}

// NewSet creates an empty handler set
func NewSet() *Set {
	return &Set{items: make(map[string]handler.Handler)}
}

// Default returns a set populated with the built-in handlers
func Default() *Set {
	s := NewSet()
	for _, h := range []handler.Handler{
		casenumber.New(),
		recordlabel.New(),
		approval.NewSubmit(),
		approval.NewApprove(),
		newcase.New(),
		quotemail.New(),
	} {
		// built-in names are unique; a clash is a programming error
		if err := s.Add(h); err != nil {
			panic(err)
		}
	}
	return s
}

// Add registers a handler under its own name
func (s *Set) Add(h handler.Handler) error {
	name := h.Name()
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "handler name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[name]; exists {
		return errors.Newf(errors.ErrAlreadyExists, "handler %q is already registered", name)
	}
	s.items[name] = h
	s.order = append(s.order, name)
	return nil
}

// Get retrieves a handler by name
func (s *Set) Get(name string) (handler.Handler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.items[name]
	if !ok {
		return nil, errors.Newf(errors.ErrHandlerNotFound, "handler %q not found", name)
	}
	return h, nil
}

// All returns every handler in registration order
func (s *Set) All() []handler.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]handler.Handler, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.items[name])
	}
	return out
}

// Count returns the number of registered handlers
func (s *Set) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
