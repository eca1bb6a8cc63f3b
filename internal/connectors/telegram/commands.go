package telegram

import (
	"context"
	"strings"

	"github.com/prestamax/chatbot/pkg/logger"
)

const (
	cmdStart = "/start"
	cmdMenu  = "/menu"
	cmdExit  = "/salir"
	cmdHelp  = "/ayuda"
	cmdDNI   = "/dni"
)

// CommandHandler handles a specific bot command. args is the text after the
// command itself, trimmed.
type CommandHandler func(ctx context.Context, chatID int64, args string)

// CommandRegistry manages bot command handlers.
type CommandRegistry struct {
	handlers map[string]CommandHandler
}

// NewCommandRegistry creates a new command registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		handlers: make(map[string]CommandHandler),
	}
}

// Register adds a command handler to the registry.
func (r *CommandRegistry) Register(command string, handler CommandHandler) {
	r.handlers[command] = handler
}

// Lookup resolves a message text to a handler and its arguments.
func (r *CommandRegistry) Lookup(text string) (CommandHandler, string, bool) {
	parts := strings.SplitN(text, " ", 2)
	command := parts[0]
	// Strip the @botname suffix Telegram appends in groups.
	if at := strings.Index(command, "@"); at != -1 {
		command = command[:at]
	}

	handler, exists := r.handlers[command]
	if !exists {
		return nil, "", false
	}

	args := ""
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return handler, args, true
}

// IsCommand checks if a message is a command.
func (r *CommandRegistry) IsCommand(text string) bool {
	return strings.HasPrefix(text, "/")
}

func (c *Connector) setupCommands() {
	c.commands = NewCommandRegistry()
	c.commands.Register(cmdStart, c.handleStartCommand)
	c.commands.Register(cmdMenu, c.handleMenuCommand)
	c.commands.Register(cmdExit, c.handleExitCommand)
	c.commands.Register(cmdHelp, c.handleHelpCommand)
	c.commands.Register(cmdDNI, c.handleDNICommand)
}

// handleCommand dispatches a command message and renews the session on
// anything that went through a handler.
func (c *Connector) handleCommand(ctx context.Context, chatID int64, text string) {
	handler, args, ok := c.commands.Lookup(text)
	if !ok {
		c.reply(ctx, chatID, msgUnknownCommand)
		c.lifecycle.Renew(ctx, chatID)
		return
	}

	c.logger.Debug("Processing command",
		logger.ChatIDField(chatID), logger.StringField("command", strings.Fields(text)[0]))
	handler(ctx, chatID, args)
}

// handleStartCommand opens (or restarts) the session and shows the menu.
func (c *Connector) handleStartCommand(ctx context.Context, chatID int64, _ string) {
	c.lifecycle.Start(ctx, chatID)
	c.reply(ctx, chatID, msgWelcome)
	c.showMenu(ctx, chatID)
}

func (c *Connector) handleMenuCommand(ctx context.Context, chatID int64, _ string) {
	c.lifecycle.Start(ctx, chatID)
	c.showMenu(ctx, chatID)
}

// handleExitCommand is the voluntary exit: farewell first, a short grace so
// the user can read it, then full teardown. The timer manager owns that
// sequence.
func (c *Connector) handleExitCommand(ctx context.Context, chatID int64, _ string) {
	if !c.sessions.Has(chatID) {
		c.reply(ctx, chatID, msgNoActiveSession)
		return
	}
	c.timers.HandleExit(ctx, chatID)
}

func (c *Connector) handleHelpCommand(ctx context.Context, chatID int64, _ string) {
	c.reply(ctx, chatID, msgHelp)
	c.lifecycle.Renew(ctx, chatID)
}

// handleDNICommand starts the DNI correction wizard. With an argument it
// applies the change in one step.
func (c *Connector) handleDNICommand(ctx context.Context, chatID int64, args string) {
	c.lifecycle.Start(ctx, chatID)

	if args != "" {
		c.applyDNI(ctx, chatID, args)
		c.lifecycle.Renew(ctx, chatID)
		return
	}

	c.sessions.SetWizard(chatID, wizardDNIFor(chatID))
	c.reply(ctx, chatID, msgAskDNI)
	c.lifecycle.Renew(ctx, chatID)
}
