// Package message_ledger keeps a durable, per-chat record of every message
// the bot has sent or received, so that session cleanup can bulk-delete the
// bot's history later.
package message_ledger //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prestamax/chatbot/pkg/logger"
)

// Ledger is the durable message-tracking store. All mutations go through the
// in-memory index and are persisted as a single JSON document.
type Ledger struct {
	config Config

	mu     sync.Mutex
	index  map[int64]*chatRecord
	fileMu sync.Mutex

	now func() time.Time
}

// New creates a ledger and loads any existing document. A corrupt or
// unreadable document degrades to an empty ledger with a logged error rather
// than failing startup; tracking a message is never worth crashing over.
func New(config Config) (*Ledger, error) {
	if config.File == "" {
		return nil, fmt.Errorf("ledger file path is required")
	}
	if config.Provider == nil {
		return nil, fmt.Errorf("file provider is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	l := &Ledger{
		config: config,
		index:  make(map[int64]*chatRecord),
		now:    time.Now,
	}
	l.load(context.Background())
	return l, nil
}

// Track appends a message to the chat's history if the message id is not
// already present, and bumps the chat's last-activity stamp. Idempotent under
// retry. A persistence failure is returned so the loss is observable, but the
// entry stays in memory; callers log and continue.
func (l *Ledger) Track(ctx context.Context, chatID int64, messageID int, messageType MessageType) error {
	l.mu.Lock()

	rec, ok := l.index[chatID]
	if !ok {
		rec = &chatRecord{}
		l.index[chatID] = rec
	}
	rec.LastActivity = l.now()

	duplicate := false
	for _, m := range rec.Messages {
		if m.MessageID == messageID {
			duplicate = true
			break
		}
	}
	if !duplicate {
		rec.Messages = append(rec.Messages, TrackedMessage{
			MessageID:   messageID,
			MessageType: messageType,
			Timestamp:   l.now(),
		})
	}
	l.mu.Unlock()

	if duplicate {
		return nil
	}

	if l.config.Metrics != nil {
		l.config.Metrics.MessagesTracked.WithLabelValues(string(messageType)).Inc()
	}

	if err := l.save(ctx); err != nil {
		return fmt.Errorf("failed to persist ledger after tracking message %d: %w", messageID, err)
	}
	return nil
}

// List returns the chat's tracked messages in insertion order. Unknown chats
// yield an empty slice.
func (l *Ledger) List(ctx context.Context, chatID int64) []TrackedMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.index[chatID]
	if !ok {
		return []TrackedMessage{}
	}

	out := make([]TrackedMessage, len(rec.Messages))
	copy(out, rec.Messages)
	return out
}

// LastActivity returns the chat's last-activity stamp.
func (l *Ledger) LastActivity(chatID int64) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.index[chatID]
	if !ok {
		return time.Time{}, false
	}
	return rec.LastActivity, true
}

// Clear removes all entries for a chat. Returns whether anything was removed.
func (l *Ledger) Clear(ctx context.Context, chatID int64) (bool, error) {
	l.mu.Lock()
	_, existed := l.index[chatID]
	delete(l.index, chatID)
	l.mu.Unlock()

	if !existed {
		return false, nil
	}

	if err := l.save(ctx); err != nil {
		return true, fmt.Errorf("failed to persist ledger after clearing chat %d: %w", chatID, err)
	}
	return true, nil
}

// Sweep removes every chat whose last activity predates the cutoff. Returns
// the number of chats removed. Scheduling is the caller's concern.
func (l *Ledger) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := l.now().Add(-maxAge)

	l.mu.Lock()
	removed := 0
	for chatID, rec := range l.index {
		if rec.LastActivity.Before(cutoff) {
			delete(l.index, chatID)
			removed++
		}
	}
	l.mu.Unlock()

	if removed == 0 {
		return 0, nil
	}

	if l.config.Metrics != nil {
		l.config.Metrics.LedgerSweepRemoved.Add(float64(removed))
	}

	l.config.Logger.Info("Swept stale chats from ledger",
		logger.IntField("removed", removed),
		logger.DurationField("max_age", maxAge))

	if err := l.save(ctx); err != nil {
		return removed, fmt.Errorf("failed to persist ledger after sweep: %w", err)
	}
	return removed, nil
}

// load reads the ledger document into the in-memory index. Failures degrade
// to an empty index and a logged error.
func (l *Ledger) load(ctx context.Context) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	exists, err := l.config.Provider.Exists(ctx, l.config.File)
	if err != nil {
		l.config.Logger.Error("Failed to check ledger document existence, starting empty",
			logger.ErrorField(err))
		return
	}
	if !exists {
		l.config.Logger.Info("Ledger document does not exist, starting with empty index")
		return
	}

	data, err := l.config.Provider.Read(ctx, l.config.File)
	if err != nil {
		l.config.Logger.Error("Failed to read ledger document, starting empty",
			logger.ErrorField(err))
		return
	}

	var doc map[string]*chatRecord
	if err := json.Unmarshal(data, &doc); err != nil {
		l.config.Logger.Error("Failed to parse ledger document, starting empty",
			logger.ErrorField(err))
		return
	}

	for key, rec := range doc {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			l.config.Logger.Warn("Skipping ledger entry with malformed chat id",
				logger.StringField("key", key))
			continue
		}
		l.index[chatID] = rec
	}

	l.config.Logger.Info("Loaded message ledger",
		logger.StringField("file", l.config.File),
		logger.IntField("chats", len(l.index)))
}

// save persists the in-memory index as the JSON ledger document.
func (l *Ledger) save(ctx context.Context) error {
	l.mu.Lock()
	doc := make(map[string]*chatRecord, len(l.index))
	for chatID, rec := range l.index {
		recCopy := &chatRecord{
			Messages:     make([]TrackedMessage, len(rec.Messages)),
			LastActivity: rec.LastActivity,
		}
		copy(recCopy.Messages, rec.Messages)
		doc[strconv.FormatInt(chatID, 10)] = recCopy
	}
	l.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	if err := l.config.Provider.Write(ctx, l.config.File, data); err != nil {
		return fmt.Errorf("failed to write ledger document: %w", err)
	}
	return nil
}
