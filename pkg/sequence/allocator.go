// Package sequence issues unique, monotonically increasing integers from
// named counter scopes. Counters live as ordinary records in the backing
// store, so the increment is a read-modify-write, not an atomic
// primitive; the allocator makes the required serialization an explicit
// configuration choice instead of silently racing.
package sequence

import (
	"context"
	"sync"

	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/logging"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/storage"
	"github.com/rs/zerolog"
)

// Mode selects how concurrent allocations on the same scope are
// serialized
type Mode string

const (
	// ModeMutex serializes through a per-scope in-process mutex.
	// Sufficient for single-process deployments.
	ModeMutex Mode = "mutex"

	// ModeConditional serializes through a storage-level conditional
	// write with retry on conflict. Required when multiple processes
	// share one store.
	ModeConditional Mode = "conditional"
)

// Counter records are stored under this kind and namespace, one record
// per scope, with Scope and Value fields.
const (
	CounterKind      = "Counter"
	CounterNamespace = "system"

	FieldScope = "Scope"
	FieldValue = "Value"
)

// maxAttempts bounds the conditional-write retry loop
const maxAttempts = 50

// Allocator hands out the next integer for a scope and persists the
// incremented counter
type Allocator struct {
	store  storage.Store
	mode   Mode
	logger zerolog.Logger

	mu     sync.Mutex
	scopes map[string]*sync.Mutex
}

// New creates an allocator over the given store. ModeConditional
// requires the store to implement storage.ConditionalSaver.
func New(store storage.Store, mode Mode) (*Allocator, error) {
	switch mode {
	case ModeMutex:
	case ModeConditional:
		if _, ok := store.(storage.ConditionalSaver); !ok {
			return nil, errors.New(errors.ErrInvalidInput,
				"conditional sequence mode requires a store with conditional saves")
		}
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown sequence mode %q", mode)
	}

	return &Allocator{
		store:  store,
		mode:   mode,
		logger: logging.GetLogger("sequence"),
		scopes: make(map[string]*sync.Mutex),
	}, nil
}

// Next returns the next integer for the scope and persists the
// incremented counter. The counter is created lazily, starting at 0; a
// non-numeric stored value also counts as 0.
func (a *Allocator) Next(ctx context.Context, scope string) (int, error) {
	if scope == "" {
		return 0, errors.New(errors.ErrInvalidInput, "sequence scope cannot be empty")
	}

	if a.mode == ModeMutex {
		lock := a.scopeLock(scope)
		lock.Lock()
		defer lock.Unlock()
		return a.allocate(ctx, scope)
	}
	return a.allocateConditional(ctx, scope)
}

// allocate performs one read-modify-write through plain saves. Callers
// must hold the scope lock.
func (a *Allocator) allocate(ctx context.Context, scope string) (int, error) {
	counter, current, err := a.load(ctx, scope)
	if err != nil {
		return 0, err
	}

	counter.Set(FieldValue, current+1)
	if _, err := a.store.Save(ctx, counter); err != nil {
		return 0, errors.Wrapf(err, errors.ErrStorage, "failed to persist counter for scope %q", scope)
	}

	a.logger.Debug().Str("scope", scope).Int("allocated", current).Msg("Allocated sequence number")
	return current, nil
}

// allocateConditional retries the read-modify-write until the
// conditional save lands or the attempt budget runs out
func (a *Allocator) allocateConditional(ctx context.Context, scope string) (int, error) {
	saver := a.store.(storage.ConditionalSaver)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		counter, current, err := a.load(ctx, scope)
		if err != nil {
			return 0, err
		}

		counter.Set(FieldValue, current+1)
		if counter.IsNew() {
			// First allocation for the scope creates the counter record.
			// Creation itself is guarded by the in-process scope lock so
			// two local goroutines cannot both insert.
			lock := a.scopeLock(scope)
			lock.Lock()
			existing, _, loadErr := a.load(ctx, scope)
			if loadErr != nil {
				lock.Unlock()
				return 0, loadErr
			}
			if !existing.IsNew() {
				lock.Unlock()
				continue
			}
			_, err = a.store.Save(ctx, counter)
			lock.Unlock()
		} else {
			_, err = saver.SaveIf(ctx, counter, FieldValue, current)
		}

		if err == nil {
			a.logger.Debug().Str("scope", scope).Int("allocated", current).
				Int("attempt", attempt).Msg("Allocated sequence number")
			return current, nil
		}
		if !errors.IsErrorCode(err, errors.ErrSequenceConflict) {
			return 0, errors.Wrapf(err, errors.ErrStorage, "failed to persist counter for scope %q", scope)
		}
		a.logger.Debug().Str("scope", scope).Int("attempt", attempt).Msg("Counter moved concurrently, retrying")
	}
	return 0, errors.Newf(errors.ErrSequenceConflict,
		"gave up allocating for scope %q after %d attempts", scope, maxAttempts)
}

// load fetches the counter record for the scope, or a fresh unpersisted
// one when absent. The second return is the current value, defaulting to
// 0 when absent or non-numeric.
func (a *Allocator) load(ctx context.Context, scope string) (*record.Record, int, error) {
	found, err := a.store.FindMany(ctx, FieldScope+" = '"+scope+"'", CounterKind)
	if err != nil {
		return nil, 0, errors.Wrapf(err, errors.ErrStorage, "failed to read counter for scope %q", scope)
	}
	if len(found) == 0 {
		fresh := record.New(CounterKind, CounterNamespace).Set(FieldScope, scope)
		return fresh, 0, nil
	}

	counter := found[0]
	current, ok := counter.Int(FieldValue)
	if !ok {
		current = 0
	}
	return counter, current, nil
}

func (a *Allocator) scopeLock(scope string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.scopes[scope]
	if !ok {
		lock = &sync.Mutex{}
		a.scopes[scope] = lock
	}
	return lock
}
