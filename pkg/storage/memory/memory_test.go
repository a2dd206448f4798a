package memory

import (
	"context"
	"testing"

	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave_Insert(t *testing.T) {
	store := New()
	ctx := context.Background()

	rec := record.New("Contact", "crm").Set("FirstName", "John")
	saved, err := store.Save(ctx, rec)

	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.Equal(t, "John", saved.String("FirstName"))

	// the input record is untouched
	assert.True(t, rec.IsNew())
}

func TestSave_Update(t *testing.T) {
	store := New()
	ctx := context.Background()

	saved, err := store.Save(ctx, record.New("Contact", "crm").Set("FirstName", "John"))
	require.NoError(t, err)

	saved.Set("FirstName", "Jane")
	updated, err := store.Save(ctx, saved)
	require.NoError(t, err)

	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, "Jane", updated.String("FirstName"))
	assert.Equal(t, saved.CreatedAt, updated.CreatedAt)
}

func TestSave_UpdateMissing(t *testing.T) {
	store := New()

	rec := record.New("Contact", "crm")
	rec.ID = "ghost"
	_, err := store.Save(context.Background(), rec)

	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestFindByID(t *testing.T) {
	store := New()
	ctx := context.Background()

	saved, err := store.Save(ctx, record.New("Account", "crm").Set("AccountName", "Acme"))
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		got, err := store.FindByID(ctx, saved.ID, "Account")
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.String("AccountName"))
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := store.FindByID(ctx, saved.ID, "Contact")
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.FindByID(ctx, "nope", "Account")
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	})

	t.Run("returned record is a clone", func(t *testing.T) {
		got, err := store.FindByID(ctx, saved.ID, "Account")
		require.NoError(t, err)
		got.Set("AccountName", "Mutated")

		again, err := store.FindByID(ctx, saved.ID, "Account")
		require.NoError(t, err)
		assert.Equal(t, "Acme", again.String("AccountName"))
	})
}

func TestFindMany(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, name := range []string{"John", "Jane", "Jim"} {
		rec := record.New("Contact", "crm").
			Set("FirstName", name).
			Set("AccountId", "1")
		if name == "Jim" {
			rec.Set("AccountId", "2")
		}
		_, err := store.Save(ctx, rec)
		require.NoError(t, err)
	}

	t.Run("filtered", func(t *testing.T) {
		got, err := store.FindMany(ctx, "AccountId = 1", "Contact")
		require.NoError(t, err)
		require.Len(t, got, 2)

		// insertion order
		assert.Equal(t, "John", got[0].String("FirstName"))
		assert.Equal(t, "Jane", got[1].String("FirstName"))
	})

	t.Run("empty filter matches all", func(t *testing.T) {
		got, err := store.FindMany(ctx, "", "Contact")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("no matches", func(t *testing.T) {
		got, err := store.FindMany(ctx, "AccountId = 99", "Contact")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("bad filter", func(t *testing.T) {
		_, err := store.FindMany(ctx, "AccountId", "Contact")
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})
}

func TestFindLast(t *testing.T) {
	store := New()
	ctx := context.Background()

	t.Run("empty kind", func(t *testing.T) {
		_, err := store.FindLast(ctx, "Settings")
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	})

	t.Run("returns most recent insert", func(t *testing.T) {
		_, err := store.Save(ctx, record.New("Settings", "crm").Set("CaseNextNumber", 1))
		require.NoError(t, err)
		_, err = store.Save(ctx, record.New("Settings", "crm").Set("CaseNextNumber", 5))
		require.NoError(t, err)

		got, err := store.FindLast(ctx, "Settings")
		require.NoError(t, err)
		n, ok := got.Int("CaseNextNumber")
		assert.True(t, ok)
		assert.Equal(t, 5, n)
	})
}

func TestSaveIf(t *testing.T) {
	store := New()
	ctx := context.Background()

	counter, err := store.Save(ctx, record.New("Counter", "system").
		Set("Scope", "case").
		Set("Value", 1))
	require.NoError(t, err)

	t.Run("value unchanged, save succeeds", func(t *testing.T) {
		next := counter.Clone().Set("Value", 2)
		saved, err := store.SaveIf(ctx, next, "Value", 1)
		require.NoError(t, err)

		n, _ := saved.Int("Value")
		assert.Equal(t, 2, n)
	})

	t.Run("value changed concurrently, save conflicts", func(t *testing.T) {
		stale := counter.Clone().Set("Value", 2)
		_, err := store.SaveIf(ctx, stale, "Value", 1)
		assert.True(t, errors.IsErrorCode(err, errors.ErrSequenceConflict))
	})

	t.Run("unpersisted record rejected", func(t *testing.T) {
		_, err := store.SaveIf(ctx, record.New("Counter", "system"), "Value", 0)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})
}

func TestContextCancellation(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.FindByID(ctx, "x", "Contact")
	assert.Error(t, err)

	_, err = store.Save(ctx, record.New("Contact", "crm"))
	assert.Error(t, err)
}
