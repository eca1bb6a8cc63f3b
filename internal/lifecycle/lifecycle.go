// Package lifecycle orchestrates the full life of a chat session: starting
// it, renewing it on activity, and tearing it down with a multi-step cleanup
// that keeps going when individual steps fail.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/prestamax/chatbot/internal/deletion_engine"
	"github.com/prestamax/chatbot/internal/message_ledger"
	"github.com/prestamax/chatbot/internal/navigation"
	"github.com/prestamax/chatbot/internal/session_store"
	"github.com/prestamax/chatbot/pkg/logger"
	"github.com/prestamax/chatbot/pkg/metrics"
)

// TimerService is the slice of the inactivity timer manager the orchestrator
// needs. Defined here so the two packages can depend on each other through
// interfaces instead of imports.
type TimerService interface {
	Start(ctx context.Context, chatID int64)
	Renew(ctx context.Context, chatID int64) bool
	Cancel(chatID int64) bool
}

// Farewell sends the goodbye message that carries the restart affordance.
type Farewell interface {
	SendFarewell(ctx context.Context, chatID int64) error
}

// StateResetter clears the user's conversational state on the lending
// backend. Optional and best-effort: the backend owns its own consistency.
type StateResetter interface {
	ResetEstado(ctx context.Context, chatID int64) error
}

// Config holds the orchestrator's collaborators.
type Config struct {
	Engine     *deletion_engine.Engine
	Ledger     *message_ledger.Ledger
	Navigation *navigation.Stack
	Sessions   *session_store.Store
	Timers     TimerService
	Notifier   Farewell
	// Backend is optional; nil skips the remote state reset step.
	Backend StateResetter
	// Recent is optional; nil skips the cache purge step.
	Recent  *deletion_engine.RecentCache
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// Orchestrator drives session start, renewal and teardown.
type Orchestrator struct {
	config Config
}

// New creates a lifecycle orchestrator.
func New(config Config) (*Orchestrator, error) {
	if config.Engine == nil {
		return nil, fmt.Errorf("deletion engine is required")
	}
	if config.Ledger == nil {
		return nil, fmt.Errorf("message ledger is required")
	}
	if config.Navigation == nil {
		return nil, fmt.Errorf("navigation stack is required")
	}
	if config.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if config.Timers == nil {
		return nil, fmt.Errorf("timer service is required")
	}
	if config.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Orchestrator{config: config}, nil
}

// Start opens a session for the chat (idempotent) and arms its inactivity
// timers.
func (o *Orchestrator) Start(ctx context.Context, chatID int64) *session_store.ChatSession {
	fresh := !o.config.Sessions.Has(chatID)
	session := o.config.Sessions.GetOrCreate(chatID)
	o.config.Timers.Start(ctx, chatID)

	if fresh {
		if o.config.Metrics != nil {
			o.config.Metrics.SessionsStarted.Inc()
		}
		o.config.Logger.Info("Session started",
			logger.ChatIDField(chatID),
			logger.StringField("session_id", session.SessionID))
	}
	return session
}

// Renew pushes the chat's inactivity deadlines forward. Returns false when
// the chat has no live session to renew, or when it is locked in the warned
// state awaiting an explicit continue/exit response.
func (o *Orchestrator) Renew(ctx context.Context, chatID int64) bool {
	if !o.config.Sessions.Has(chatID) {
		return false
	}
	return o.config.Timers.Renew(ctx, chatID)
}

// Clear tears the chat's session down. Steps run in a fixed order and are
// fault-isolated: a failing step is recorded and the rest still run, so a
// transport hiccup can never leave timers armed or the session half-alive.
// Best-effort steps (farewell, remote state reset) fail into the summary
// log only; the error return carries a ledger wipe failure, the one step
// whose failure leaves durable state behind.
//
// suppressFarewell skips the goodbye message for callers that have already
// sent their own (voluntary exit, inactivity termination).
func (o *Orchestrator) Clear(ctx context.Context, chatID int64, suppressFarewell bool) (deletion_engine.Outcome, error) {
	var errs *multierror.Error
	var clearErr error

	// 1. Delete the bot's messages. User messages stay: the transport
	// forbids deleting them past a window anyway and users expect their own
	// words to remain.
	outcome := o.config.Engine.DeleteBotMessagesOnly(ctx, chatID)

	// 2. Drop screen history.
	o.config.Navigation.Clear(chatID)

	// 3. Disarm timers before touching session state so nothing fires
	// mid-teardown.
	o.config.Timers.Cancel(chatID)

	// 4. Clear the warning lockout flag.
	o.config.Sessions.SetWarningActive(chatID, false)

	// 5. Goodbye, unless the caller already said it.
	if !suppressFarewell {
		if err := o.config.Notifier.SendFarewell(ctx, chatID); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("farewell: %w", err))
		}
	}

	// 6. Purge the recent-message cache; those ids were already merged into
	// the deletion run.
	if o.config.Recent != nil {
		o.config.Recent.Clear(chatID)
	}

	// 7. Wipe the durable ledger entry.
	if _, err := o.config.Ledger.Clear(ctx, chatID); err != nil {
		clearErr = fmt.Errorf("ledger clear: %w", err)
		errs = multierror.Append(errs, clearErr)
	}

	// 8. Drop in-memory session state, wizard included.
	o.config.Sessions.SetWizard(chatID, nil)
	o.config.Sessions.Delete(chatID)

	// 9. Best-effort remote state reset.
	if o.config.Backend != nil {
		if err := o.config.Backend.ResetEstado(ctx, chatID); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("backend state reset: %w", err))
		}
	}

	if o.config.Metrics != nil {
		o.config.Metrics.SessionsCleared.Inc()
	}

	stepErrors := 0
	if errs != nil {
		stepErrors = len(errs.Errors)
		o.config.Logger.Warn("Session clear finished with step errors",
			logger.ChatIDField(chatID),
			logger.ErrorField(errs))
	}
	o.config.Logger.Info("Session cleared",
		logger.ChatIDField(chatID),
		logger.IntField("messages_deleted", outcome.Deleted),
		logger.IntField("messages_failed", outcome.Failed),
		logger.Float64Field("success_rate", outcome.SuccessRate),
		logger.IntField("step_errors", stepErrors))

	return outcome, clearErr
}
