package casenumber_test

import (
	"context"
	"testing"

	"github.com/arthur-debert/automat/pkg/dispatch"
	"github.com/arthur-debert/automat/pkg/handlers/casenumber"
	"github.com/arthur-debert/automat/pkg/handlers/registry"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/testutil"
	"github.com/arthur-debert/automat/pkg/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T) (*dispatch.Dispatcher, *registry.Set) {
	t.Helper()
	h := casenumber.New()
	set := registry.NewSet()
	require.NoError(t, set.Add(h))

	reg := trigger.NewRegistry()
	for _, decl := range h.Triggers() {
		require.NoError(t, reg.Register(decl))
	}
	return dispatch.New(reg, set), set
}

func TestExec_AssignsNextNumber(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SeedCounter(casenumber.Scope, 1)
	d, _ := newDispatcher(t)
	ctx := context.Background()

	newCase := record.New("Case", "crm").Set("Subject", "printer on fire")
	out := d.Dispatch(ctx, env.Ctx, trigger.PhaseBefore, trigger.EventCreate, newCase)

	require.Equal(t, dispatch.StatusContinue, out.Status)
	n, ok := out.Record.Int(casenumber.FieldCaseNumber)
	require.True(t, ok)
	assert.Equal(t, 1, n)

	// the host persists the continued snapshot; the counter has already
	// been bumped by its own save
	saved, err := env.Store.Save(ctx, out.Record)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, 2, env.Counter(casenumber.Scope))
}

func TestExec_FirstAllocationStartsAtZero(t *testing.T) {
	env := testutil.NewEnv(t)
	d, _ := newDispatcher(t)

	out := d.Dispatch(context.Background(), env.Ctx, trigger.PhaseBefore, trigger.EventCreate,
		record.New("Case", "crm"))

	require.Equal(t, dispatch.StatusContinue, out.Status)
	n, _ := out.Record.Int(casenumber.FieldCaseNumber)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, env.Counter(casenumber.Scope))
}

func TestExec_ConsecutiveCreates(t *testing.T) {
	env := testutil.NewEnv(t)
	d, _ := newDispatcher(t)
	ctx := context.Background()

	for want := 0; want < 3; want++ {
		out := d.Dispatch(ctx, env.Ctx, trigger.PhaseBefore, trigger.EventCreate,
			record.New("Case", "crm"))
		require.Equal(t, dispatch.StatusContinue, out.Status)
		n, _ := out.Record.Int(casenumber.FieldCaseNumber)
		assert.Equal(t, want, n)
	}
}

func TestTriggers_OnlyBeforeCreateOnCases(t *testing.T) {
	env := testutil.NewEnv(t)
	d, _ := newDispatcher(t)
	ctx := context.Background()

	t.Run("update does not fire", func(t *testing.T) {
		rec := record.New("Case", "crm")
		rec.ID = "1"
		out := d.Dispatch(ctx, env.Ctx, trigger.PhaseBefore, trigger.EventUpdate, rec)

		require.Equal(t, dispatch.StatusContinue, out.Status)
		assert.False(t, out.Record.Has(casenumber.FieldCaseNumber))
	})

	t.Run("other kinds do not fire", func(t *testing.T) {
		out := d.Dispatch(ctx, env.Ctx, trigger.PhaseBefore, trigger.EventCreate,
			record.New("Quote", "crm"))

		require.Equal(t, dispatch.StatusContinue, out.Status)
		assert.False(t, out.Record.Has(casenumber.FieldCaseNumber))
	})
}
