package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationAdvance(t *testing.T) {
	a := NewAuthorization()
	assert.Equal(t, StepAwaitingSignature, a.Step)

	a, ok := a.Advance()
	require.True(t, ok)
	assert.Equal(t, StepAwaitingFingerprint, a.Step)

	a, ok = a.Advance()
	require.True(t, ok)
	assert.Equal(t, StepConfirm, a.Step)

	_, ok = a.Advance()
	assert.False(t, ok, "confirm is the final step")
}

func TestKinds(t *testing.T) {
	var states = []State{
		DNIEdit{TargetUserID: "u-1"},
		NewAuthorization(),
		Search{Domain: DomainAdmin},
	}

	assert.Equal(t, KindDNIEdit, states[0].Kind())
	assert.Equal(t, KindAuthorization, states[1].Kind())
	assert.Equal(t, KindSearch, states[2].Kind())
}

func TestAuthorizationDataAccumulates(t *testing.T) {
	a := NewAuthorization()
	a.Data["signature_file_id"] = "file-123"

	advanced, ok := a.Advance()
	require.True(t, ok)
	assert.Equal(t, "file-123", advanced.Data["signature_file_id"])
}
