package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserID(t *testing.T) {
	id, err := NewUserID("  alice_01 ")
	require.NoError(t, err)
	assert.Equal(t, UserID("alice_01"), id)

	_, err = NewUserID("   ")
	assert.ErrorIs(t, err, ErrEmptyUserID)

	for _, raw := range []string{"a b", "a:b", "a*", "a?", "a[b]", `a\b`} {
		_, err := NewUserID(raw)
		assert.ErrorIs(t, err, ErrInvalidID, raw)
		assert.True(t, IsValidation(err), raw)
	}
}
