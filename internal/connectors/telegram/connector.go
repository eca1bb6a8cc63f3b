// Package telegram is the bot's Telegram transport. It routes incoming
// messages and button presses into the session core, and funnels every
// outbound send through the message ledger so cleanup can find it later.
package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/prestamax/chatbot/internal/backend"
	"github.com/prestamax/chatbot/internal/deletion_engine"
	"github.com/prestamax/chatbot/internal/lifecycle"
	"github.com/prestamax/chatbot/internal/message_ledger"
	"github.com/prestamax/chatbot/internal/navigation"
	"github.com/prestamax/chatbot/internal/session_store"
	"github.com/prestamax/chatbot/internal/timeout_manager"
	"github.com/prestamax/chatbot/pkg/logger"
)

// Connector wires the Telegram Bot API to the session core. It implements
// the core's Notifier and Deleter interfaces so warnings, farewells and bulk
// deletions all travel through the same tracked transport.
type Connector struct {
	bot      *bot.Bot
	logger   logger.Logger
	commands *CommandRegistry

	ledger     *message_ledger.Ledger
	recent     *deletion_engine.RecentCache
	sessions   *session_store.Store
	navigation *navigation.Stack
	// backend is optional; nil disables the user-state flows that need it.
	backend *backend.Client

	// Bound after construction: the lifecycle and timer manager both need
	// this connector as their notifier.
	lifecycle *lifecycle.Orchestrator
	timers    *timeout_manager.Manager
}

// Config holds configuration for the Telegram connector.
type Config struct {
	BotToken string
	Debug    bool

	Ledger     *message_ledger.Ledger
	Recent     *deletion_engine.RecentCache
	Sessions   *session_store.Store
	Navigation *navigation.Stack
	Backend    *backend.Client
	Logger     logger.Logger
}

// NewConnector creates a Telegram connector. Bind must be called before
// Start.
func NewConnector(config Config) (*Connector, error) {
	if config.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if config.Ledger == nil {
		return nil, fmt.Errorf("message ledger is required")
	}
	if config.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if config.Navigation == nil {
		return nil, fmt.Errorf("navigation stack is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	connector := &Connector{
		logger:     config.Logger,
		ledger:     config.Ledger,
		recent:     config.Recent,
		sessions:   config.Sessions,
		navigation: config.Navigation,
		backend:    config.Backend,
	}
	connector.setupCommands()

	opts := []bot.Option{
		bot.WithDefaultHandler(connector.handleUpdate),
	}
	if config.Debug {
		opts = append(opts, bot.WithDebug())
	}

	b, err := bot.New(config.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	connector.bot = b

	config.Logger.Info("Telegram bot initialized")
	return connector, nil
}

// Bind attaches the session core collaborators that are constructed after
// the connector (they need it as their notifier).
func (c *Connector) Bind(orchestrator *lifecycle.Orchestrator, timers *timeout_manager.Manager) {
	c.lifecycle = orchestrator
	c.timers = timers
}

// Start begins long polling. Blocks until the context is cancelled.
func (c *Connector) Start(ctx context.Context) error {
	if c.lifecycle == nil || c.timers == nil {
		return fmt.Errorf("connector is not bound to the session core")
	}
	c.logger.Info("Starting Telegram bot polling")
	c.bot.Start(ctx)
	return nil
}

// handleUpdate routes every incoming update.
func (c *Connector) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	ctx, _ = logger.EnsureCorrelationID(ctx)

	switch {
	case update.CallbackQuery != nil:
		c.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		c.handleMessage(ctx, update.Message)
	}
}

// handleMessage processes a text message: track it, enforce the warned-state
// lockout, route commands and wizard input, and renew the inactivity timers.
func (c *Connector) handleMessage(ctx context.Context, msg *models.Message) {
	if msg.From != nil && msg.From.IsBot {
		return // avoid loops
	}
	chatID := msg.Chat.ID

	if err := c.ledger.Track(ctx, chatID, msg.ID, message_ledger.TypeUser); err != nil {
		c.logger.Warn("Failed to track incoming message",
			logger.ChatIDField(chatID), logger.MessageIDField(msg.ID), logger.ErrorField(err))
	}

	// A warned chat is locked: free text neither renews the timers nor
	// clears the flag. Only the warning buttons and /salir get through.
	if c.sessions.WarningActive(chatID) && msg.Text != cmdExit {
		c.reply(ctx, chatID, msgWarnedLockout)
		return
	}

	if c.commands.IsCommand(msg.Text) {
		c.handleCommand(ctx, chatID, msg.Text)
		return
	}

	if !c.sessions.Has(chatID) {
		// Free text with no session: greet instead of guessing intent.
		c.lifecycle.Start(ctx, chatID)
		c.reply(ctx, chatID, msgWelcome)
		c.showMenu(ctx, chatID)
		return
	}

	if state := c.sessions.Wizard(chatID); state != nil {
		c.handleWizardInput(ctx, chatID, msg.Text, state)
		c.lifecycle.Renew(ctx, chatID)
		return
	}

	c.reply(ctx, chatID, msgUseMenu)
	c.lifecycle.Renew(ctx, chatID)
}

// send delivers a message and records it in the ledger and recent cache.
// Every user-visible message the bot produces goes through here; anything
// sent another way would survive session cleanup.
func (c *Connector) send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) (*models.Message, error) {
	return c.sendAs(ctx, chatID, text, markup, message_ledger.TypeBot)
}

// sendAs sends a message and tracks it under the given ledger type. The
// warning prompt carries its own type so the history shows what interrupted
// the conversation.
func (c *Connector) sendAs(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup, msgType message_ledger.MessageType) (*models.Message, error) {
	sent, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		return nil, err
	}

	c.track(ctx, chatID, sent.ID, msgType)
	return sent, nil
}

// track records an outgoing message in the ledger and the recent cache.
func (c *Connector) track(ctx context.Context, chatID int64, messageID int, msgType message_ledger.MessageType) {
	if err := c.ledger.Track(ctx, chatID, messageID, msgType); err != nil {
		c.logger.Warn("Failed to track outgoing message",
			logger.ChatIDField(chatID), logger.MessageIDField(messageID), logger.ErrorField(err))
	}
	if c.recent != nil {
		c.recent.Add(chatID, messageID, msgType)
	}
}

func (c *Connector) reply(ctx context.Context, chatID int64, text string) {
	if _, err := c.send(ctx, chatID, text, nil); err != nil {
		c.logger.Error("Failed to send message",
			logger.ChatIDField(chatID), logger.ErrorField(err))
	}
}

// DeleteMessage removes a single message. Satisfies the deletion engine's
// transport interface; the Telegram error text is passed through untouched
// so the engine can classify the failure.
func (c *Connector) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	ok, err := c.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("message %d was not deleted", messageID)
	}
	return nil
}

// SendWarning shows the inactivity prompt with its continue/exit buttons.
func (c *Connector) SendWarning(ctx context.Context, chatID int64) error {
	_, err := c.sendAs(ctx, chatID, msgInactivityWarning, warningKeyboard(), message_ledger.TypeWarning)
	return err
}

// SendTimeoutNotice tells the user the session expired. Sent after cleanup,
// so it is deliberately not tracked further than any other message; the
// restart keyboard gives the user a way back in.
func (c *Connector) SendTimeoutNotice(ctx context.Context, chatID int64) error {
	_, err := c.send(ctx, chatID, msgSessionExpired, restartKeyboard())
	return err
}

// SendFarewell says goodbye and offers the restart keyboard.
func (c *Connector) SendFarewell(ctx context.Context, chatID int64) error {
	_, err := c.send(ctx, chatID, msgFarewell, restartKeyboard())
	return err
}
