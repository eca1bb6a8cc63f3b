package session_store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prestamax/chatbot/internal/wizard"
)

func TestGetOrCreate(t *testing.T) {
	s := New()

	assert.Nil(t, s.Get(555))
	assert.False(t, s.Has(555))

	session := s.GetOrCreate(555)
	require.NotNil(t, session)
	assert.Equal(t, int64(555), session.ChatID)
	assert.Contains(t, session.SessionID, "chsess-")
	assert.False(t, session.WarningActive)
	assert.Nil(t, session.Wizard)

	// Subsequent calls return the same record
	again := s.GetOrCreate(555)
	assert.Same(t, session, again)
	assert.Equal(t, 1, s.Len())
}

func TestTouch(t *testing.T) {
	s := New()
	current := time.Now()
	s.now = func() time.Time { return current }

	session := s.GetOrCreate(1)
	first := session.LastActivity

	current = current.Add(time.Minute)
	s.Touch(1)
	assert.Equal(t, first.Add(time.Minute), session.LastActivity)

	// Unknown chat is a no-op
	s.Touch(999)
}

func TestWarningFlag(t *testing.T) {
	s := New()

	assert.False(t, s.SetWarningActive(1, true), "unknown chat")
	assert.False(t, s.WarningActive(1))

	s.GetOrCreate(1)
	assert.True(t, s.SetWarningActive(1, true))
	assert.True(t, s.WarningActive(1))

	assert.True(t, s.SetWarningActive(1, false))
	assert.False(t, s.WarningActive(1))
}

func TestWizardLifecycle(t *testing.T) {
	s := New()
	s.GetOrCreate(7)

	assert.Nil(t, s.Wizard(7))

	require.True(t, s.SetWizard(7, wizard.DNIEdit{TargetUserID: "u-9"}))
	state := s.Wizard(7)
	require.NotNil(t, state)
	assert.Equal(t, wizard.KindDNIEdit, state.Kind())

	// Clearing a session is just "set wizard to none" plus delete
	require.True(t, s.SetWizard(7, nil))
	assert.Nil(t, s.Wizard(7))
}

func TestDelete(t *testing.T) {
	s := New()

	assert.False(t, s.Delete(1))

	s.GetOrCreate(1)
	s.GetOrCreate(2)

	assert.True(t, s.Delete(1))
	assert.False(t, s.Has(1))
	assert.True(t, s.Has(2), "deleting one chat must not affect others")
}
