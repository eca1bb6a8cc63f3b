package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRegistryLookup(t *testing.T) {
	registry := NewCommandRegistry()

	var gotArgs string
	registry.Register("/dni", func(_ context.Context, _ int64, args string) {
		gotArgs = args
	})

	tests := []struct {
		name     string
		text     string
		found    bool
		wantArgs string
	}{
		{name: "bare command", text: "/dni", found: true, wantArgs: ""},
		{name: "command with argument", text: "/dni 12345678", found: true, wantArgs: "12345678"},
		{name: "group mention suffix", text: "/dni@prestamax_bot 12345678", found: true, wantArgs: "12345678"},
		{name: "unknown command", text: "/loans", found: false},
		{name: "argument whitespace trimmed", text: "/dni   12345678  ", found: true, wantArgs: "12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, args, ok := registry.Lookup(tt.text)
			require.Equal(t, tt.found, ok)
			if !ok {
				return
			}
			handler(context.Background(), 1, args)
			assert.Equal(t, tt.wantArgs, gotArgs)
		})
	}
}

func TestIsCommand(t *testing.T) {
	registry := NewCommandRegistry()
	assert.True(t, registry.IsCommand("/start"))
	assert.True(t, registry.IsCommand("/salir"))
	assert.False(t, registry.IsCommand("hola"))
	assert.False(t, registry.IsCommand(""))
}

func TestValidDNI(t *testing.T) {
	assert.True(t, validDNI("12345678"))
	assert.True(t, validDNI("00123456"))
	assert.False(t, validDNI("1234567"), "too short")
	assert.False(t, validDNI("123456789"), "too long")
	assert.False(t, validDNI("1234567a"), "non-numeric")
	assert.False(t, validDNI(""), "empty")
}

func TestScreenText(t *testing.T) {
	assert.Equal(t, msgScreenLoans, screenText(screenLoans))
	assert.Equal(t, msgScreenPayments, screenText(screenPayments))
	assert.Equal(t, msgScreenProfile, screenText(screenProfile))
	assert.Equal(t, msgMenu, screenText("unknown"))
}

func TestWarningKeyboardCarriesSessionCallbacks(t *testing.T) {
	kb := warningKeyboard()
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, cbContinue, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, cbExit, kb.InlineKeyboard[0][1].CallbackData)
}

func TestRestartKeyboardIsOneTime(t *testing.T) {
	kb := restartKeyboard()
	require.Len(t, kb.Keyboard, 1)
	assert.Equal(t, btnRestart, kb.Keyboard[0][0].Text)
	assert.True(t, kb.OneTimeKeyboard)
}
