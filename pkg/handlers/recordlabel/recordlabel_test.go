package recordlabel_test

import (
	"context"
	"testing"

	"github.com/arthur-debert/automat/pkg/handler"
	"github.com/arthur-debert/automat/pkg/handlers/recordlabel"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/testutil"
	"github.com/arthur-debert/automat/pkg/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exec(t *testing.T, env *testutil.Env, rec *record.Record) *record.Record {
	t.Helper()
	out, err := recordlabel.New().Exec(context.Background(), &handler.Event{
		Phase:  trigger.PhaseBefore,
		Kind:   trigger.EventCreate,
		Record: rec,
	}, env.Ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	return out
}

func TestExec_FullNameWithAccount(t *testing.T) {
	env := testutil.NewEnv(t)
	account := env.Seed(record.New("Account", "crm").Set("AccountName", "Acme"))

	contact := record.New("Contact", "crm").
		Set("FirstName", "John").
		Set("LastName", "Doe").
		Set("AccountId", account.ID)

	out := exec(t, env, contact)
	assert.Equal(t, "John Doe (Acme)", out.String(recordlabel.FieldRecordLabel))
}

func TestExec_AccountMissingDegradesGracefully(t *testing.T) {
	env := testutil.NewEnv(t)

	contact := record.New("Contact", "crm").
		Set("FirstName", "John").
		Set("LastName", "Doe").
		Set("AccountId", "1")

	out := exec(t, env, contact)
	assert.Equal(t, "John Doe", out.String(recordlabel.FieldRecordLabel))
}

func TestExec_PartialNames(t *testing.T) {
	tests := []struct {
		name      string
		firstName string
		lastName  string
		want      string
	}{
		{"first only", "John", "", "John"},
		{"last only", "", "Doe", "Doe"},
		{"neither", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t)
			contact := record.New("Contact", "crm").
				Set("FirstName", tt.firstName).
				Set("LastName", tt.lastName)

			out := exec(t, env, contact)
			assert.Equal(t, tt.want, out.String(recordlabel.FieldRecordLabel))
		})
	}
}

func TestExec_AccountWithoutName(t *testing.T) {
	env := testutil.NewEnv(t)
	account := env.Seed(record.New("Account", "crm"))

	contact := record.New("Contact", "crm").
		Set("FirstName", "John").
		Set("LastName", "Doe").
		Set("AccountId", account.ID)

	out := exec(t, env, contact)
	assert.Equal(t, "John Doe", out.String(recordlabel.FieldRecordLabel))
}

func TestTriggers(t *testing.T) {
	decls := recordlabel.New().Triggers()

	require.Len(t, decls, 1)
	assert.Equal(t, trigger.PhaseBefore, decls[0].Phase)
	assert.ElementsMatch(t, []trigger.EventKind{trigger.EventCreate, trigger.EventUpdate}, decls[0].Events)
	assert.Equal(t, "Contact", decls[0].Kind)
}
