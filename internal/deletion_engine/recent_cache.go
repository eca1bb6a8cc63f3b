package deletion_engine //nolint:revive // var-naming: using underscores for domain clarity

import (
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/prestamax/chatbot/internal/message_ledger"
)

// RecentCache is a TTL'd write-through cache of messages sent on the hot
// path. The ledger remains the source of truth; the cache only cushions the
// window where a send has happened but the ledger write may still be in
// flight, so DeleteAll never misses a fresh message.
type RecentCache struct {
	mu sync.Mutex
	c  *gocache.Cache
}

// NewRecentCache creates a cache whose per-chat entries expire after ttl.
func NewRecentCache(ttl time.Duration) *RecentCache {
	return &RecentCache{
		c: gocache.New(ttl, 2*ttl),
	}
}

// Add records a freshly sent message for the chat and refreshes the chat's
// TTL.
func (r *RecentCache) Add(chatID int64, messageID int, messageType message_ledger.MessageType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := cacheKey(chatID)
	var entries []message_ledger.TrackedMessage
	if existing, ok := r.c.Get(key); ok {
		entries = existing.([]message_ledger.TrackedMessage)
	}
	entries = append(entries, message_ledger.TrackedMessage{
		MessageID:   messageID,
		MessageType: messageType,
		Timestamp:   time.Now(),
	})
	r.c.SetDefault(key, entries)
}

// List returns the chat's cached messages.
func (r *RecentCache) List(chatID int64) []message_ledger.TrackedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.c.Get(cacheKey(chatID))
	if !ok {
		return nil
	}
	entries := existing.([]message_ledger.TrackedMessage)
	out := make([]message_ledger.TrackedMessage, len(entries))
	copy(out, entries)
	return out
}

// Clear drops the chat's cached messages.
func (r *RecentCache) Clear(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.Delete(cacheKey(chatID))
}

func cacheKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
