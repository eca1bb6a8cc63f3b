// Package timeout_manager owns the two-stage inactivity countdown for each
// chat: a warning prompt after an initial idle window and a forced
// termination after a longer one, both rescheduled on every renewal.
package timeout_manager //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/prestamax/chatbot/internal/session_store"
	"github.com/prestamax/chatbot/pkg/logger"
	"github.com/prestamax/chatbot/pkg/metrics"
)

// State is the per-chat timer state.
type State int

const (
	// StateIdle: no timers scheduled for the chat.
	StateIdle State = iota
	// StateActive: both timers scheduled, warning not yet shown.
	StateActive
	// StateWarned: warning shown, termination timer still running.
	StateWarned
	// StateTerminated: the chat's session has been force-closed.
	StateTerminated
)

// Notifier sends the timer manager's user-facing messages. The transport
// adapter implements it and routes every send through the message ledger.
type Notifier interface {
	// SendWarning shows the interactive continue/exit prompt.
	SendWarning(ctx context.Context, chatID int64) error
	// SendTimeoutNotice tells the user the session ended due to inactivity
	// and offers a restart affordance.
	SendTimeoutNotice(ctx context.Context, chatID int64) error
	// SendFarewell acknowledges a voluntary exit and offers a restart
	// affordance.
	SendFarewell(ctx context.Context, chatID int64) error
}

// Clearer tears down a chat's session. Implemented by the lifecycle
// orchestrator and bound after construction to break the dependency cycle
// between termination and cleanup.
type Clearer interface {
	Clear(ctx context.Context, chatID int64, suppressFarewell bool) error
}

// Config holds configuration for the timer manager.
type Config struct {
	// WarnAfter is the idle window before the warning prompt.
	WarnAfter time.Duration
	// TerminateAfter is the idle window before forced termination, measured
	// from the same renewal instant as WarnAfter.
	TerminateAfter time.Duration
	// ExitGrace is the pause between the farewell and the actual cleanup
	// when the user chooses to exit.
	ExitGrace time.Duration

	Sessions *session_store.Store
	Notifier Notifier
	// Clock defaults to the real clock; tests inject a fake.
	Clock   clockwork.Clock
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// entry tracks one chat's scheduled timer pair. The epoch is bumped on every
// reschedule; a fired callback whose captured epoch is stale no-ops, which
// tolerates the race where a renewal cancels a timer just as it fires.
type entry struct {
	epoch     uint64
	state     State
	warnTimer clockwork.Timer
	termTimer clockwork.Timer
}

// Manager schedules and renews the per-chat timer pairs.
type Manager struct {
	config Config

	mu      sync.Mutex
	entries map[int64]*entry
	clearer Clearer
}

// New creates a timer manager.
func New(config Config) (*Manager, error) {
	if config.WarnAfter <= 0 || config.TerminateAfter <= config.WarnAfter {
		return nil, fmt.Errorf("termination window (%s) must exceed warning window (%s)", config.TerminateAfter, config.WarnAfter)
	}
	if config.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if config.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	return &Manager{
		config:  config,
		entries: make(map[int64]*entry),
	}, nil
}

// BindClearer wires the session clearer. Must be called before any timer can
// fire; the composition root does this right after constructing the
// lifecycle orchestrator.
func (m *Manager) BindClearer(c Clearer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearer = c
}

// Start ensures a session exists for the chat and schedules a fresh timer
// pair. Starting an already-active chat behaves like a renewal.
func (m *Manager) Start(ctx context.Context, chatID int64) {
	m.config.Sessions.GetOrCreate(chatID)

	m.mu.Lock()
	e, ok := m.entries[chatID]
	if !ok {
		e = &entry{}
		m.entries[chatID] = e
	}
	m.schedule(chatID, e)
	m.mu.Unlock()

	m.config.Logger.Debug("Inactivity timers started", logger.ChatIDField(chatID))
}

// Renew cancels and reschedules both timers relative to now. Returns false
// when the chat has no timers, or when it is locked in the warned state:
// only the designated continue/exit responses may leave that state.
func (m *Manager) Renew(ctx context.Context, chatID int64) bool {
	m.mu.Lock()
	e, ok := m.entries[chatID]
	if !ok || e.state == StateWarned || e.state == StateTerminated {
		m.mu.Unlock()
		return false
	}
	m.schedule(chatID, e)
	m.mu.Unlock()

	m.config.Sessions.Touch(chatID)
	if m.config.Metrics != nil {
		m.config.Metrics.SessionRenewals.Inc()
	}
	return true
}

// Cancel stops and removes the chat's timer pair. Returns whether one
// existed. Safe against concurrently firing callbacks: their epoch check
// makes a lost cancellation race harmless.
func (m *Manager) Cancel(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[chatID]
	if !ok {
		return false
	}
	e.epoch++ // invalidate in-flight callbacks
	stopTimers(e)
	delete(m.entries, chatID)
	return true
}

// State returns the chat's timer state.
func (m *Manager) State(chatID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[chatID]
	if !ok {
		return StateIdle
	}
	return e.state
}

// HandleContinue processes the "continue" response to the warning prompt:
// clears the warning flag and renews from now. Returns false if the chat was
// not in the warned state.
func (m *Manager) HandleContinue(ctx context.Context, chatID int64) bool {
	m.mu.Lock()
	e, ok := m.entries[chatID]
	if !ok || e.state != StateWarned {
		m.mu.Unlock()
		return false
	}
	e.state = StateActive
	m.schedule(chatID, e)
	m.mu.Unlock()

	m.config.Sessions.SetWarningActive(chatID, false)
	m.config.Sessions.Touch(chatID)
	if m.config.Metrics != nil {
		m.config.Metrics.SessionRenewals.Inc()
	}

	m.config.Logger.Info("Session continued after warning", logger.ChatIDField(chatID))
	return true
}

// HandleExit processes the "exit" response: farewell, a short grace pause,
// then full session teardown. The farewell carries the restart affordance,
// so the clear routine's own acknowledgement is suppressed.
func (m *Manager) HandleExit(ctx context.Context, chatID int64) {
	m.mu.Lock()
	if e, ok := m.entries[chatID]; ok {
		e.state = StateTerminated
		e.epoch++
		stopTimers(e)
	}
	clearer := m.clearer
	m.mu.Unlock()

	if err := m.config.Notifier.SendFarewell(ctx, chatID); err != nil {
		m.config.Logger.Warn("Failed to send farewell",
			logger.ChatIDField(chatID), logger.ErrorField(err))
	}

	m.config.Clock.Sleep(m.config.ExitGrace)

	if clearer != nil {
		if err := clearer.Clear(ctx, chatID, true); err != nil {
			m.config.Logger.Error("Session clear failed after exit",
				logger.ChatIDField(chatID), logger.ErrorField(err))
		}
	}
	if m.config.Metrics != nil {
		m.config.Metrics.Terminations.WithLabelValues("exit").Inc()
	}
}

// schedule bumps the epoch and (re)schedules both timers relative to now.
// Caller holds m.mu.
func (m *Manager) schedule(chatID int64, e *entry) {
	e.epoch++
	epoch := e.epoch
	stopTimers(e)
	e.state = StateActive

	e.warnTimer = m.config.Clock.AfterFunc(m.config.WarnAfter, func() {
		m.fireWarning(chatID, epoch)
	})
	e.termTimer = m.config.Clock.AfterFunc(m.config.TerminateAfter, func() {
		m.fireTermination(chatID, epoch)
	})
}

// fireWarning runs when the warning timer elapses. The termination timer
// keeps running: silence after the warning still ends the session.
func (m *Manager) fireWarning(chatID int64, epoch uint64) {
	m.mu.Lock()
	e, ok := m.entries[chatID]
	if !ok || e.epoch != epoch || e.state != StateActive {
		m.mu.Unlock()
		return // stale callback
	}
	e.state = StateWarned
	m.mu.Unlock()

	m.config.Sessions.SetWarningActive(chatID, true)

	ctx, _ := logger.EnsureCorrelationID(context.Background())
	if err := m.config.Notifier.SendWarning(ctx, chatID); err != nil {
		m.config.Logger.Error("Failed to send inactivity warning",
			logger.ChatIDField(chatID), logger.ErrorField(err))
	}
	if m.config.Metrics != nil {
		m.config.Metrics.WarningsSent.Inc()
	}

	m.config.Logger.Info("Inactivity warning issued", logger.ChatIDField(chatID))
}

// fireTermination runs when the termination timer elapses with no response.
// The clear routine's farewell is suppressed; the timeout notice carries the
// restart affordance instead.
func (m *Manager) fireTermination(chatID int64, epoch uint64) {
	m.mu.Lock()
	e, ok := m.entries[chatID]
	if !ok || e.epoch != epoch || e.state == StateTerminated {
		m.mu.Unlock()
		return // stale callback
	}
	e.state = StateTerminated
	stopTimers(e)
	clearer := m.clearer
	m.mu.Unlock()

	ctx, _ := logger.EnsureCorrelationID(context.Background())

	if clearer != nil {
		if err := clearer.Clear(ctx, chatID, true); err != nil {
			m.config.Logger.Error("Session clear failed during termination",
				logger.ChatIDField(chatID), logger.ErrorField(err))
		}
	}

	if err := m.config.Notifier.SendTimeoutNotice(ctx, chatID); err != nil {
		m.config.Logger.Warn("Failed to send timeout notice",
			logger.ChatIDField(chatID), logger.ErrorField(err))
	}
	if m.config.Metrics != nil {
		m.config.Metrics.Terminations.WithLabelValues("timeout").Inc()
	}

	m.config.Logger.Info("Session terminated due to inactivity", logger.ChatIDField(chatID))
}

func stopTimers(e *entry) {
	if e.warnTimer != nil {
		e.warnTimer.Stop()
	}
	if e.termTimer != nil {
		e.termTimer.Stop()
	}
}
