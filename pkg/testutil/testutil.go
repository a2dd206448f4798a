// Package testutil provides a ready-made test environment: an in-memory
// store plus recording collaborators, wired into a handler execution
// context.
package testutil

import (
	"context"
	"testing"

	"github.com/arthur-debert/automat/pkg/directory"
	"github.com/arthur-debert/automat/pkg/feedback"
	"github.com/arthur-debert/automat/pkg/handler"
	"github.com/arthur-debert/automat/pkg/mail"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/sequence"
	"github.com/arthur-debert/automat/pkg/storage/memory"
	"github.com/stretchr/testify/require"
)

// BaseURL is the frontend base URL test environments are configured with
const BaseURL = "https://crm.example.com"

// Env is a fully wired test environment
type Env struct {
	T         *testing.T
	Store     *memory.Store
	Mail      *mail.Recorder
	Feedback  *feedback.Recorder
	Allocator *sequence.Allocator
	Ctx       *handler.Context
}

// NewEnv builds a test environment whose directory knows the given users
func NewEnv(t *testing.T, users ...directory.User) *Env {
	t.Helper()

	store := memory.New()
	alloc, err := sequence.New(store, sequence.ModeMutex)
	require.NoError(t, err)

	env := &Env{
		T:         t,
		Store:     store,
		Mail:      &mail.Recorder{},
		Feedback:  &feedback.Recorder{},
		Allocator: alloc,
	}
	env.Ctx = handler.NewContext(store, directory.NewStatic(users...),
		env.Mail, env.Feedback, alloc, BaseURL)
	return env
}

// Seed persists a record into the store and returns the saved snapshot
func (e *Env) Seed(rec *record.Record) *record.Record {
	e.T.Helper()
	saved, err := e.Store.Save(context.Background(), rec)
	require.NoError(e.T, err)
	return saved
}

// SeedCounter persists a counter record for the scope at the given value
func (e *Env) SeedCounter(scope string, value int) *record.Record {
	e.T.Helper()
	return e.Seed(record.New(sequence.CounterKind, sequence.CounterNamespace).
		Set(sequence.FieldScope, scope).
		Set(sequence.FieldValue, value))
}

// Counter reads the current value of the scope's counter
func (e *Env) Counter(scope string) int {
	e.T.Helper()
	found, err := e.Store.FindMany(context.Background(),
		sequence.FieldScope+" = '"+scope+"'", sequence.CounterKind)
	require.NoError(e.T, err)
	require.Len(e.T, found, 1)
	n, ok := found[0].Int(sequence.FieldValue)
	require.True(e.T, ok)
	return n
}
