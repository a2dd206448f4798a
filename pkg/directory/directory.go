// Package directory defines the user-directory collaborator the engine
// consumes for creator lookups, plus a static in-memory implementation.
package directory

import (
	"context"

	"github.com/arthur-debert/automat/pkg/errors"
)

// User is a directory entry
type User struct {
	ID    string
	Email string
	Name  string
}

// Directory resolves user IDs to users
type Directory interface {
	// LookupUser returns the user with the given ID, or an
	// errors.ErrNotFound coded error
	LookupUser(ctx context.Context, id string) (*User, error)
}

// Static is a fixed, in-memory directory
type Static struct {
	users map[string]User
}

var _ Directory = (*Static)(nil)

// NewStatic builds a directory from a list of users
func NewStatic(users ...User) *Static {
	m := make(map[string]User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &Static{users: m}
}

// LookupUser returns the user with the given ID
func (s *Static) LookupUser(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "no user with ID %s", id)
	}
	out := u
	return &out, nil
}
