package message_ledger //nolint:revive // var-naming: using underscores for domain clarity

import (
	"time"

	"github.com/prestamax/chatbot/internal/storage"
	"github.com/prestamax/chatbot/pkg/logger"
	"github.com/prestamax/chatbot/pkg/metrics"
)

// MessageType tags a tracked message with its origin.
type MessageType string

const (
	// TypeBot marks messages the bot sent.
	TypeBot MessageType = "bot"
	// TypeUser marks messages received from the user.
	TypeUser MessageType = "user"
	// TypeWarning marks the inactivity warning prompt.
	TypeWarning MessageType = "warning"
)

// TrackedMessage is one ledger entry. MessageID is the transport-assigned
// identifier, unique within a chat's history but not globally.
type TrackedMessage struct {
	MessageID   int         `json:"messageId"`
	MessageType MessageType `json:"messageType"`
	Timestamp   time.Time   `json:"timestamp"`
}

// chatRecord holds the per-chat message history and activity stamp. This is
// the on-disk schema: the ledger document is a map of chat id to chatRecord.
type chatRecord struct {
	Messages     []TrackedMessage `json:"messages"`
	LastActivity time.Time        `json:"lastActivity"`
}

// Config holds configuration for the message ledger.
type Config struct {
	// File is the ledger document path, relative to the provider root.
	File string
	// Provider persists the ledger document.
	Provider storage.FileProvider
	// Logger is required.
	Logger logger.Logger
	// Metrics is optional; when set, tracking and sweeps are counted.
	Metrics *metrics.Metrics
}
