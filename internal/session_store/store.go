// Package session_store holds the in-memory map of active chat sessions.
// Sessions are created lazily and removed wholesale on clear; there is no
// persistence requirement across restarts.
package session_store //nolint:revive // var-naming: using underscores for domain clarity

import (
	"sync"
	"time"

	"github.com/prestamax/chatbot/internal/wizard"
	"github.com/prestamax/chatbot/pkg/prefixed_uuid"
)

// ChatSession is the mutable per-chat session record. It is owned
// exclusively by the Store; other components hold only the chat id.
type ChatSession struct {
	ChatID        int64
	SessionID     string
	CreatedAt     time.Time
	LastActivity  time.Time
	WarningActive bool
	// Wizard is the single in-progress guided flow, or nil.
	Wizard wizard.State
}

// Store maps chat ids to session records. All access is mutex-guarded so
// handler goroutines and timer callbacks serialize their mutations.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*ChatSession
	now      func() time.Time
}

// New creates an empty session store.
func New() *Store {
	return &Store{
		sessions: make(map[int64]*ChatSession),
		now:      time.Now,
	}
}

// Get returns the session for a chat, or nil.
func (s *Store) Get(chatID int64) *ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[chatID]
}

// Has reports whether a session exists for the chat.
func (s *Store) Has(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[chatID]
	return ok
}

// Set stores a session record for a chat.
func (s *Store) Set(chatID int64, session *ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = session
}

// GetOrCreate returns the chat's session, creating a fresh record on first
// use.
func (s *Store) GetOrCreate(chatID int64) *ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[chatID]; ok {
		return session
	}

	now := s.now()
	session := &ChatSession{
		ChatID:       chatID,
		SessionID:    prefixed_uuid.New("chsess").String(),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[chatID] = session
	return session
}

// Touch updates the session's last-activity stamp. No-op for unknown chats.
func (s *Store) Touch(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[chatID]; ok {
		session.LastActivity = s.now()
	}
}

// SetWarningActive flips the warning flag. Returns false for unknown chats.
func (s *Store) SetWarningActive(chatID int64, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[chatID]
	if !ok {
		return false
	}
	session.WarningActive = active
	return true
}

// WarningActive reports whether the chat is locked behind the inactivity
// warning prompt.
func (s *Store) WarningActive(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[chatID]
	return ok && session.WarningActive
}

// SetWizard installs (or with nil, resets) the chat's active wizard.
func (s *Store) SetWizard(chatID int64, state wizard.State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[chatID]
	if !ok {
		return false
	}
	session.Wizard = state
	return true
}

// Wizard returns the chat's active wizard, or nil.
func (s *Store) Wizard(chatID int64) wizard.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[chatID]
	if !ok {
		return nil
	}
	return session.Wizard
}

// Delete removes the chat's session record. Returns whether one existed.
func (s *Store) Delete(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.sessions[chatID]
	delete(s.sessions, chatID)
	return existed
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
