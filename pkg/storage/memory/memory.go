// Package memory provides an in-memory record store, used by tests and
// single-process deployments that do not need durability.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/storage"
	"github.com/arthur-debert/automat/pkg/storage/filter"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of storage.Store. Records are kept
// per kind in insertion order; all reads and writes hand out clones so
// callers never alias stored state.
type Store struct {
	mu      sync.RWMutex
	records map[string][]*record.Record // kind -> records, insertion order
}

var _ storage.Store = (*Store)(nil)
var _ storage.ConditionalSaver = (*Store)(nil)

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		records: make(map[string][]*record.Record),
	}
}

// FindByID returns the record with the given ID and kind
func (s *Store) FindByID(ctx context.Context, id, kind string) (*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records[kind] {
		if rec.ID == id {
			return rec.Clone(), nil
		}
	}
	return nil, errors.Newf(errors.ErrNotFound, "no %s record with ID %s", kind, id)
}

// FindMany returns all records of the kind matching the filter
// expression, in insertion order
func (s *Store) FindMany(ctx context.Context, expr, kind string) ([]*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := filter.Parse(expr)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*record.Record
	for _, rec := range s.records[kind] {
		if f.Match(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// FindLast returns the most recently inserted record of the kind
func (s *Store) FindLast(ctx context.Context, kind string) (*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.records[kind]
	if len(recs) == 0 {
		return nil, errors.Newf(errors.ErrNotFound, "no %s records", kind)
	}
	return recs[len(recs)-1].Clone(), nil
}

// Save inserts the record when its ID is unset, updates it otherwise
func (s *Store) Save(ctx context.Context, rec *record.Record) (*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored := rec.Clone()
	stored.UpdatedAt = now

	if rec.IsNew() {
		stored.ID = uuid.NewString()
		stored.CreatedAt = now
		s.records[rec.Kind] = append(s.records[rec.Kind], stored)
		return stored.Clone(), nil
	}

	for i, existing := range s.records[rec.Kind] {
		if existing.ID == rec.ID {
			// CreatedBy and CreatedAt are immutable once persisted
			stored.CreatedBy = existing.CreatedBy
			stored.CreatedAt = existing.CreatedAt
			s.records[rec.Kind][i] = stored
			return stored.Clone(), nil
		}
	}
	return nil, errors.Newf(errors.ErrNotFound, "no %s record with ID %s to update", rec.Kind, rec.ID)
}

// SaveIf persists the record only if the stored record's field still holds
// the previously observed value
func (s *Store) SaveIf(ctx context.Context, rec *record.Record, field string, previous interface{}) (*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.IsNew() {
		return nil, errors.New(errors.ErrInvalidInput, "conditional save requires a persisted record")
	}

	for i, existing := range s.records[rec.Kind] {
		if existing.ID != rec.ID {
			continue
		}
		if existing.String(field) != stringify(previous) {
			return nil, errors.Newf(errors.ErrSequenceConflict,
				"%s.%s changed concurrently", rec.Kind, field)
		}
		stored := rec.Clone()
		stored.CreatedBy = existing.CreatedBy
		stored.CreatedAt = existing.CreatedAt
		stored.UpdatedAt = time.Now().UTC()
		s.records[rec.Kind][i] = stored
		return stored.Clone(), nil
	}
	return nil, errors.Newf(errors.ErrNotFound, "no %s record with ID %s to update", rec.Kind, rec.ID)
}

// stringify renders a value the way record.String does, so conditional
// compares are insensitive to int/float/string representation drift
func stringify(v interface{}) string {
	probe := record.New("", "").Set("v", v)
	if s := probe.String("v"); s != "" {
		return s
	}
	return fmt.Sprintf("%v", v)
}
