package newcase_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/arthur-debert/automat/pkg/feedback"
	"github.com/arthur-debert/automat/pkg/handler"
	"github.com/arthur-debert/automat/pkg/handlers/casenumber"
	"github.com/arthur-debert/automat/pkg/handlers/newcase"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/testutil"
	"github.com/arthur-debert/automat/pkg/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(env *testutil.Env) *record.Record {
	return env.Seed(record.New("Account", "crm").
		Set("Name", "Acme").
		Set("OwnerId", "owner-7"))
}

func seedContact(env *testutil.Env, accountID string) *record.Record {
	return env.Seed(record.New("Contact", "crm").
		Set("AccountId", accountID).
		Set("FirstName", "John").
		Set("LastName", "Doe").
		Set("Email", "john@acme.example").
		Set("Phone", "555-0100"))
}

func TestExec_CreatesCaseWithContact(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SeedCounter(casenumber.Scope, 41)
	account := seedAccount(env)
	contact := seedContact(env, account.ID)
	ctx := context.Background()

	evt := &handler.Event{Phase: trigger.PhaseManual, Record: account}
	out, err := newcase.New().Exec(ctx, evt, env.Ctx)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "Case", out.Kind)
	assert.Equal(t, "crm", out.Namespace)
	assert.NotEmpty(t, out.ID, "case was persisted")
	assert.Equal(t, "owner-7", out.String("OwnerId"))
	assert.Equal(t, "(no subject)", out.String("Subject"))
	assert.Equal(t, account.ID, out.String("AccountId"))
	assert.Equal(t, "New", out.String("Status"))
	assert.Equal(t, "Low", out.String("Priority"))
	assert.Equal(t, "00000041", out.String(casenumber.FieldCaseNumber))

	assert.Equal(t, contact.ID, out.String("ContactId"))
	assert.Equal(t, "John Doe", out.String("SuppliedName"))
	assert.Equal(t, "john@acme.example", out.String("SuppliedEmail"))
	assert.Equal(t, "555-0100", out.String("SuppliedPhone"))

	stored, err := env.Store.FindByID(ctx, out.ID, "Case")
	require.NoError(t, err)
	assert.Equal(t, out.ID, stored.ID)

	entries := env.Feedback.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, feedback.Success, entries[0].Kind)
	assert.Equal(t, "The new case has been created.", entries[0].Message)

	// counter advanced past the allocated number
	assert.Equal(t, 42, env.Counter(casenumber.Scope))
}

func TestExec_NoContact(t *testing.T) {
	env := testutil.NewEnv(t)
	account := seedAccount(env)

	evt := &handler.Event{Phase: trigger.PhaseManual, Record: account}
	out, err := newcase.New().Exec(context.Background(), evt, env.Ctx)
	require.NoError(t, err)
	require.NotNil(t, out)

	// case still created, just without contact details
	assert.Equal(t, "00000000", out.String(casenumber.FieldCaseNumber))
	assert.False(t, out.Has("ContactId"))
	assert.False(t, out.Has("SuppliedName"))
}

func TestExec_PicksFirstContact(t *testing.T) {
	env := testutil.NewEnv(t)
	account := seedAccount(env)
	first := seedContact(env, account.ID)
	env.Seed(record.New("Contact", "crm").
		Set("AccountId", account.ID).
		Set("FirstName", "Jane").
		Set("LastName", "Roe"))
	// a contact on another account never matches
	env.Seed(record.New("Contact", "crm").
		Set("AccountId", "someone-else").
		Set("FirstName", "Max"))

	evt := &handler.Event{Phase: trigger.PhaseManual, Record: account}
	out, err := newcase.New().Exec(context.Background(), evt, env.Ctx)
	require.NoError(t, err)

	assert.Equal(t, first.ID, out.String("ContactId"))
	assert.Equal(t, "John Doe", out.String("SuppliedName"))
}

func TestExec_ConsecutiveCases(t *testing.T) {
	env := testutil.NewEnv(t)
	account := seedAccount(env)
	h := newcase.New()

	for i := 0; i < 3; i++ {
		evt := &handler.Event{Phase: trigger.PhaseManual, Record: account}
		out, err := h.Exec(context.Background(), evt, env.Ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%08d", i), out.String(casenumber.FieldCaseNumber))
	}
}

func TestTriggers_ManualOnAccount(t *testing.T) {
	decls := newcase.New().Triggers()
	require.Len(t, decls, 1)
	assert.Equal(t, trigger.PhaseManual, decls[0].Phase)
	assert.Equal(t, "Account", decls[0].Kind)
	assert.Equal(t, "crm", decls[0].Namespace)
	assert.Equal(t, newcase.HandlerName, decls[0].Handler)
}
