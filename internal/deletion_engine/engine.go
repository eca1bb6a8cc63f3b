// Package deletion_engine removes previously sent messages from the chat
// transport in bulk. Telegram-like transports rate-limit deletion calls and
// fail per message (already deleted, too old, no permission), so the engine
// paces its calls, tolerates partial failure and reports a classified
// outcome instead of treating any single failure as fatal.
package deletion_engine //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/prestamax/chatbot/internal/message_ledger"
	"github.com/prestamax/chatbot/pkg/logger"
	"github.com/prestamax/chatbot/pkg/metrics"
)

// FailureReason buckets transport deletion errors.
type FailureReason string

const (
	// ReasonNotFound: the message no longer exists.
	ReasonNotFound FailureReason = "not_found"
	// ReasonCannotDelete: the transport refuses (permissions, foreign message).
	ReasonCannotDelete FailureReason = "cannot_delete"
	// ReasonTooOld: past the transport's deletion window.
	ReasonTooOld FailureReason = "too_old"
	// ReasonOther: anything unrecognised.
	ReasonOther FailureReason = "other"
)

// Outcome summarises a bulk deletion run.
type Outcome struct {
	Total         int
	Deleted       int
	Failed        int
	SuccessRate   float64
	FailedReasons map[FailureReason]int
}

// Deleter is the transport-level deletion primitive.
type Deleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Lister supplies the tracked message history for a chat.
type Lister interface {
	List(ctx context.Context, chatID int64) []message_ledger.TrackedMessage
}

// Config holds configuration for the deletion engine.
type Config struct {
	Deleter Deleter
	Ledger  Lister
	// Recent is an optional write-through cache of recently sent messages,
	// merged with the ledger at deletion time.
	Recent *RecentCache
	// Pacing is the minimum interval between deletion calls. Zero disables
	// pacing (useful in tests).
	Pacing time.Duration
	// BatchSize switches runs larger than itself to batched dispatch:
	// parallel within a batch, BatchDelay between batches. Zero keeps every
	// run sequential under the pace limiter.
	BatchSize  int
	BatchDelay time.Duration
	Logger     logger.Logger
	Metrics    *metrics.Metrics
}

// Engine performs paced, failure-tolerant bulk deletions.
type Engine struct {
	config  Config
	limiter *rate.Limiter

	sleep func(time.Duration) // swapped in tests
}

// New creates a deletion engine. The pace limiter is shared across chats so
// concurrent cleanups stay within the transport's global rate limit.
func New(config Config) *Engine {
	limit := rate.Inf
	if config.Pacing > 0 {
		limit = rate.Every(config.Pacing)
	}
	return &Engine{
		config:  config,
		limiter: rate.NewLimiter(limit, 1),
		sleep:   time.Sleep,
	}
}

// DeleteAll deletes every tracked message for the chat: ledger history plus
// the recent-message cache, de-duplicated by message id, attempted
// sequentially in insertion order. Each deletion is independent.
func (e *Engine) DeleteAll(ctx context.Context, chatID int64) Outcome {
	return e.run(ctx, chatID, e.collect(ctx, chatID, false))
}

// DeleteBotMessagesOnly behaves like DeleteAll but skips entries tagged as
// user messages: bot messages, warning prompts and untyped entries (older
// ledger documents) are all bot-owned and get removed.
func (e *Engine) DeleteBotMessagesOnly(ctx context.Context, chatID int64) Outcome {
	return e.run(ctx, chatID, e.collect(ctx, chatID, true))
}

// DeleteBatch deletes an explicit id list in fixed-size batches: parallel
// dispatch within a batch, sequential across batches with a delay between
// them. Used for large or selective deletions.
func (e *Engine) DeleteBatch(ctx context.Context, chatID int64, messageIDs []int, batchSize int, delay time.Duration) Outcome {
	start := time.Now()
	outcome := Outcome{FailedReasons: make(map[FailureReason]int)}

	if batchSize < 1 {
		batchSize = 1
	}

	var mu sync.Mutex
	for offset := 0; offset < len(messageIDs); offset += batchSize {
		end := offset + batchSize
		if end > len(messageIDs) {
			end = len(messageIDs)
		}

		var wg sync.WaitGroup
		for _, id := range messageIDs[offset:end] {
			wg.Add(1)
			go func(messageID int) {
				defer wg.Done()
				err := e.config.Deleter.DeleteMessage(ctx, chatID, messageID)

				mu.Lock()
				defer mu.Unlock()
				e.record(&outcome, chatID, messageID, err)
			}(id)
		}
		wg.Wait()

		if end < len(messageIDs) && delay > 0 {
			e.sleep(delay)
		}
	}

	e.finish(&outcome, chatID, start)
	return outcome
}

// collect merges ledger history with the recent-message cache, preserving
// ledger insertion order and de-duplicating by message id.
func (e *Engine) collect(ctx context.Context, chatID int64, botOnly bool) []message_ledger.TrackedMessage {
	entries := e.config.Ledger.List(ctx, chatID)
	if e.config.Recent != nil {
		entries = append(entries, e.config.Recent.List(chatID)...)
	}

	seen := make(map[int]bool, len(entries))
	out := make([]message_ledger.TrackedMessage, 0, len(entries))
	for _, m := range entries {
		if seen[m.MessageID] {
			continue
		}
		seen[m.MessageID] = true

		if botOnly && m.MessageType == message_ledger.TypeUser {
			continue
		}
		out = append(out, m)
	}
	return out
}

// run deletes the given entries sequentially under the pace limiter. Runs
// larger than the configured batch size go through DeleteBatch instead, so
// big history cleanups finish in bounded time.
func (e *Engine) run(ctx context.Context, chatID int64, entries []message_ledger.TrackedMessage) Outcome {
	if e.config.BatchSize > 0 && len(entries) > e.config.BatchSize {
		ids := make([]int, len(entries))
		for i, m := range entries {
			ids[i] = m.MessageID
		}
		return e.DeleteBatch(ctx, chatID, ids, e.config.BatchSize, e.config.BatchDelay)
	}

	start := time.Now()
	outcome := Outcome{FailedReasons: make(map[FailureReason]int)}

	for _, m := range entries {
		if err := e.limiter.Wait(ctx); err != nil {
			// Context cancelled mid-run; report what we have.
			break
		}
		err := e.config.Deleter.DeleteMessage(ctx, chatID, m.MessageID)
		e.record(&outcome, chatID, m.MessageID, err)
	}

	e.finish(&outcome, chatID, start)
	return outcome
}

// record accounts for a single deletion attempt.
func (e *Engine) record(outcome *Outcome, chatID int64, messageID int, err error) {
	outcome.Total++
	if err == nil {
		outcome.Deleted++
		if e.config.Metrics != nil {
			e.config.Metrics.MessagesDeleted.Inc()
		}
		return
	}

	reason := Classify(err)
	outcome.Failed++
	outcome.FailedReasons[reason]++

	if e.config.Metrics != nil {
		e.config.Metrics.DeletionFailures.WithLabelValues(string(reason)).Inc()
	}
	e.config.Logger.Debug("Message deletion failed",
		logger.ChatIDField(chatID),
		logger.MessageIDField(messageID),
		logger.StringField("reason", string(reason)),
		logger.ErrorField(err))
}

// finish computes the success rate and emits the run summary.
func (e *Engine) finish(outcome *Outcome, chatID int64, start time.Time) {
	if outcome.Total == 0 {
		outcome.SuccessRate = 100
	} else {
		outcome.SuccessRate = float64(outcome.Deleted) / float64(outcome.Total) * 100
	}

	if e.config.Metrics != nil {
		e.config.Metrics.DeleteRunDuration.Observe(time.Since(start).Seconds())
	}
	e.config.Logger.Info("Bulk deletion finished",
		logger.ChatIDField(chatID),
		logger.IntField("total", outcome.Total),
		logger.IntField("deleted", outcome.Deleted),
		logger.IntField("failed", outcome.Failed),
		logger.Float64Field("success_rate", outcome.SuccessRate))
}

// Classify maps a transport deletion error onto a failure reason bucket by
// inspecting the message text; the engine never depends on transport error
// types.
func Classify(err error) FailureReason {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"):
		return ReasonNotFound
	case strings.Contains(msg, "can't be deleted"),
		strings.Contains(msg, "cannot be deleted"),
		strings.Contains(msg, "message to delete is forbidden"):
		return ReasonCannotDelete
	case strings.Contains(msg, "too old"):
		return ReasonTooOld
	default:
		return ReasonOther
	}
}
