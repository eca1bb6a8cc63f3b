package telegram

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/prestamax/chatbot/internal/backend"
	"github.com/prestamax/chatbot/internal/wizard"
	"github.com/prestamax/chatbot/pkg/logger"
)

// Screen names pushed onto the navigation stack.
const (
	screenMenu     = "menu"
	screenLoans    = "prestamos"
	screenPayments = "pagos"
	screenProfile  = "perfil"
)

// handleCallback routes an inline button press.
func (c *Connector) handleCallback(ctx context.Context, cb *models.CallbackQuery) {
	// Always acknowledge so the client stops its spinner, even when the
	// press turns out to be stale.
	if _, err := c.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	}); err != nil {
		c.logger.Warn("Failed to answer callback query", logger.ErrorField(err))
	}

	if cb.Message.Message == nil {
		return // message too old for Telegram to reference
	}
	chatID := cb.Message.Message.Chat.ID

	switch cb.Data {
	case cbContinue:
		if c.timers.HandleContinue(ctx, chatID) {
			c.reply(ctx, chatID, msgContinued)
		}
	case cbExit:
		c.timers.HandleExit(ctx, chatID)
	case cbBack:
		c.handleBack(ctx, chatID)
		c.lifecycle.Renew(ctx, chatID)
	case cbScreenLoans:
		c.showScreen(ctx, chatID, screenLoans)
		c.lifecycle.Renew(ctx, chatID)
	case cbScreenPayments:
		c.showScreen(ctx, chatID, screenPayments)
		c.lifecycle.Renew(ctx, chatID)
	case cbScreenProfile:
		c.showScreen(ctx, chatID, screenProfile)
		c.lifecycle.Renew(ctx, chatID)
	default:
		c.logger.Warn("Unknown callback data",
			logger.ChatIDField(chatID), logger.StringField("data", cb.Data))
	}
}

// showMenu renders the root screen and records it in the navigation stack.
func (c *Connector) showMenu(ctx context.Context, chatID int64) {
	c.navigation.Push(chatID, screenMenu)
	if _, err := c.send(ctx, chatID, msgMenu, menuKeyboard()); err != nil {
		c.logger.Error("Failed to send menu", logger.ChatIDField(chatID), logger.ErrorField(err))
	}
}

// showScreen renders a non-root screen with a back button.
func (c *Connector) showScreen(ctx context.Context, chatID int64, screen string) {
	c.navigation.Push(chatID, screen)
	if _, err := c.send(ctx, chatID, screenText(screen), backKeyboard()); err != nil {
		c.logger.Error("Failed to send screen",
			logger.ChatIDField(chatID), logger.StringField("screen", screen), logger.ErrorField(err))
	}
}

// handleBack pops the current screen and re-renders the one underneath.
func (c *Connector) handleBack(ctx context.Context, chatID int64) {
	c.navigation.Pop(chatID) // discard current screen

	previous, ok := c.navigation.Peek(chatID)
	if !ok {
		c.reply(ctx, chatID, msgNothingToGoBack)
		c.showMenu(ctx, chatID)
		return
	}

	if previous == screenMenu {
		// Re-render without a duplicate push; Push de-duplicates the top
		// anyway, but the menu needs its own keyboard.
		if _, err := c.send(ctx, chatID, msgMenu, menuKeyboard()); err != nil {
			c.logger.Error("Failed to send menu", logger.ChatIDField(chatID), logger.ErrorField(err))
		}
		return
	}
	if _, err := c.send(ctx, chatID, screenText(previous), backKeyboard()); err != nil {
		c.logger.Error("Failed to send screen",
			logger.ChatIDField(chatID), logger.StringField("screen", previous), logger.ErrorField(err))
	}
}

func screenText(screen string) string {
	switch screen {
	case screenLoans:
		return msgScreenLoans
	case screenPayments:
		return msgScreenPayments
	case screenProfile:
		return msgScreenProfile
	default:
		return msgMenu
	}
}

// handleWizardInput feeds free text into the chat's active wizard.
func (c *Connector) handleWizardInput(ctx context.Context, chatID int64, text string, state wizard.State) {
	switch s := state.(type) {
	case wizard.DNIEdit:
		c.applyDNI(ctx, chatID, text)
	case wizard.Authorization:
		c.advanceAuthorization(ctx, chatID, s, text)
	case wizard.Search:
		// Single-step: the first input is the query.
		c.reply(ctx, chatID, "Buscando «"+text+"»... Te muestro los resultados en el menú.")
		c.sessions.SetWizard(chatID, nil)
		c.showMenu(ctx, chatID)
	default:
		c.sessions.SetWizard(chatID, nil)
		c.reply(ctx, chatID, msgUseMenu)
	}
}

// applyDNI validates and stores a corrected DNI, then ends the wizard.
func (c *Connector) applyDNI(ctx context.Context, chatID int64, input string) {
	if !validDNI(input) {
		c.reply(ctx, chatID, msgInvalidDNI)
		return // wizard stays active so the user can retry
	}

	if c.backend != nil {
		err := c.backend.SetUserEstado(ctx, backend.Estado{
			ChatID:  chatID,
			State:   backend.EstadoIdle,
			Context: map[string]string{"dni": input},
		})
		if err != nil {
			c.logger.Warn("Failed to store DNI on backend",
				logger.ChatIDField(chatID), logger.ErrorField(err))
		}
	}

	c.sessions.SetWizard(chatID, nil)
	c.reply(ctx, chatID, msgDNISaved)
}

// advanceAuthorization steps the photo-authorization flow on each input.
func (c *Connector) advanceAuthorization(ctx context.Context, chatID int64, s wizard.Authorization, input string) {
	switch s.Step {
	case wizard.StepAwaitingSignature:
		s.Data["signature"] = input
	case wizard.StepAwaitingFingerprint:
		s.Data["fingerprint"] = input
	}

	next, moved := s.Advance()
	if !moved {
		c.sessions.SetWizard(chatID, nil)
		c.reply(ctx, chatID, "Autorización completada. ¡Gracias!")
		return
	}

	c.sessions.SetWizard(chatID, next)
	switch next.Step {
	case wizard.StepAwaitingFingerprint:
		c.reply(ctx, chatID, "Ahora mandá la foto de tu huella digital.")
	case wizard.StepConfirm:
		c.reply(ctx, chatID, "Escribí «confirmar» para finalizar la autorización.")
	}
}

// validDNI accepts the national 8-digit document format.
func validDNI(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// wizardDNIFor starts a DNI edit targeting the chat's own user.
func wizardDNIFor(chatID int64) wizard.DNIEdit {
	return wizard.DNIEdit{TargetUserID: strconv.FormatInt(chatID, 10)}
}
