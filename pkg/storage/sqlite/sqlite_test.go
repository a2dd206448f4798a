package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndFindByID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := record.New("Contact", "crm").
		Set("FirstName", "John").
		Set("LastName", "Doe")
	rec.CreatedBy = "42"

	saved, err := store.Save(ctx, rec)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := store.FindByID(ctx, saved.ID, "Contact")
	require.NoError(t, err)
	assert.Equal(t, "John", got.String("FirstName"))
	assert.Equal(t, "42", got.CreatedBy)
	assert.Equal(t, "crm", got.Namespace)
}

func TestFindByID_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.FindByID(context.Background(), "nope", "Contact")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestSave_Update(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, record.New("Quote", "crm").Set("Status", "Draft"))
	require.NoError(t, err)

	saved.Set("Status", "In Review")
	updated, err := store.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, "In Review", updated.String("Status"))
	assert.Equal(t, saved.ID, updated.ID)
}

func TestSave_UpdateMissing(t *testing.T) {
	store := openTestStore(t)

	rec := record.New("Quote", "crm")
	rec.ID = "ghost"
	_, err := store.Save(context.Background(), rec)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestFindMany(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i, name := range []string{"John", "Jane", "Jim"} {
		accountID := "1"
		if i == 2 {
			accountID = "2"
		}
		_, err := store.Save(ctx, record.New("Contact", "crm").
			Set("FirstName", name).
			Set("AccountId", accountID))
		require.NoError(t, err)
	}

	got, err := store.FindMany(ctx, "AccountId = 1", "Contact")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "John", got[0].String("FirstName"))
	assert.Equal(t, "Jane", got[1].String("FirstName"))
}

func TestFindLast(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		_, err := store.FindLast(ctx, "Settings")
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	})

	t.Run("latest insert wins", func(t *testing.T) {
		_, err := store.Save(ctx, record.New("Settings", "crm").Set("CaseNextNumber", 1))
		require.NoError(t, err)
		_, err = store.Save(ctx, record.New("Settings", "crm").Set("CaseNextNumber", 7))
		require.NoError(t, err)

		got, err := store.FindLast(ctx, "Settings")
		require.NoError(t, err)
		n, ok := got.Int("CaseNextNumber")
		assert.True(t, ok)
		assert.Equal(t, 7, n)
	})
}

func TestSaveIf(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	counter, err := store.Save(ctx, record.New("Counter", "system").
		Set("Scope", "case").
		Set("Value", 1))
	require.NoError(t, err)

	t.Run("succeeds while value unchanged", func(t *testing.T) {
		next := counter.Clone().Set("Value", 2)
		saved, err := store.SaveIf(ctx, next, "Value", 1)
		require.NoError(t, err)

		n, _ := saved.Int("Value")
		assert.Equal(t, 2, n)
	})

	t.Run("conflicts when value moved on", func(t *testing.T) {
		stale := counter.Clone().Set("Value", 2)
		_, err := store.SaveIf(ctx, stale, "Value", 1)
		assert.True(t, errors.IsErrorCode(err, errors.ErrSequenceConflict))
	})

	t.Run("not found wins over conflict", func(t *testing.T) {
		ghost := record.New("Counter", "system").Set("Value", 2)
		ghost.ID = "ghost"
		_, err := store.SaveIf(ctx, ghost, "Value", 1)
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	})
}
