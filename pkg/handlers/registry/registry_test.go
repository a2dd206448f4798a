package registry

import (
	"testing"

	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/handlers/approval"
	"github.com/arthur-debert/automat/pkg/handlers/casenumber"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, 6, s.Count())

	for _, name := range []string{
		casenumber.HandlerName,
		"contact-label",
		approval.SubmitHandlerName,
		approval.ApproveHandlerName,
		"account-create-case",
		"quote-send-to-contact",
	} {
		h, err := s.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, h.Name())
	}
}

func TestAdd_Duplicate(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add(casenumber.New()))

	err := s.Add(casenumber.New())
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))
}

func TestGet_Missing(t *testing.T) {
	s := NewSet()

	_, err := s.Get("nope")
	assert.True(t, errors.IsErrorCode(err, errors.ErrHandlerNotFound))
}

func TestAll_PreservesOrder(t *testing.T) {
	s := Default()

	all := s.All()
	require.Len(t, all, 6)
	assert.Equal(t, casenumber.HandlerName, all[0].Name())
}
