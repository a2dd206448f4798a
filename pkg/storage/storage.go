// Package storage defines the record store collaborator interface the
// engine consumes. Persistence formats and query evaluation belong to the
// store implementations, not to the engine.
package storage

import (
	"context"

	"github.com/arthur-debert/automat/pkg/record"
)

// Store is the narrow interface the engine requires of the record
// storage collaborator. All calls block until done and honor the
// passed context; any failure propagates unchanged to the caller.
type Store interface {
	// FindByID returns the record with the given ID and kind, or an
	// errors.ErrNotFound coded error
	FindByID(ctx context.Context, id, kind string) (*record.Record, error)

	// FindMany returns all records of the kind matching the filter
	// expression, in insertion order. The filter language is the small
	// predicate language of the filter subpackage.
	FindMany(ctx context.Context, filter, kind string) ([]*record.Record, error)

	// FindLast returns the most recently inserted record of the kind.
	// Used for singleton, settings-style records.
	FindLast(ctx context.Context, kind string) (*record.Record, error)

	// Save persists the record: insert when its ID is unset, update
	// otherwise. Returns the persisted record, with ID and timestamps
	// filled in.
	Save(ctx context.Context, rec *record.Record) (*record.Record, error)
}

// ConditionalSaver is an optional store capability: persist a record only
// if one of its fields still holds a previously observed value. Stores
// backed by an engine with conditional updates implement it; the sequence
// allocator uses it for multi-process-safe counter increments.
type ConditionalSaver interface {
	// SaveIf persists rec if the stored record's field still equals
	// previous. A lost race returns an errors.ErrSequenceConflict coded
	// error and persists nothing.
	SaveIf(ctx context.Context, rec *record.Record, field string, previous interface{}) (*record.Record, error)
}
