package prefixed_uuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndString(t *testing.T) {
	id := New("chsess")
	assert.Equal(t, "chsess", id.Prefix)
	assert.False(t, id.IsZero())
	assert.Contains(t, id.String(), "chsess-")
}

func TestFromString(t *testing.T) {
	original := New("chsess")

	parsed, err := FromString(original.String())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestFromStringInvalid(t *testing.T) {
	_, err := FromString("noprefix")
	assert.Error(t, err)

	_, err = FromString("chsess-not-a-uuid")
	assert.Error(t, err)
}

func TestIsZero(t *testing.T) {
	var zero PrefixedUUID
	assert.True(t, zero.IsZero())
}
