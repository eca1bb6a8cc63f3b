package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prestamax/chatbot/internal/deletion_engine"
	"github.com/prestamax/chatbot/internal/message_ledger"
	"github.com/prestamax/chatbot/internal/storage"
	"github.com/prestamax/chatbot/pkg/logger"
)

func trackingConnector(t *testing.T) (*Connector, *message_ledger.Ledger, *deletion_engine.RecentCache) {
	t.Helper()

	log := logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Format: "text"})
	ledger, err := message_ledger.New(message_ledger.Config{
		File:     "ledger.json",
		Provider: storage.NewLocalFileProvider(t.TempDir()),
		Logger:   log,
	})
	require.NoError(t, err)

	recent := deletion_engine.NewRecentCache(time.Minute)
	return &Connector{logger: log, ledger: ledger, recent: recent}, ledger, recent
}

func TestTrackRecordsMessageType(t *testing.T) {
	c, ledger, recent := trackingConnector(t)
	ctx := context.Background()

	c.track(ctx, 42, 7, message_ledger.TypeBot)
	c.track(ctx, 42, 8, message_ledger.TypeWarning)

	entries := ledger.List(ctx, 42)
	require.Len(t, entries, 2)
	assert.Equal(t, message_ledger.TypeBot, entries[0].MessageType)
	assert.Equal(t, message_ledger.TypeWarning, entries[1].MessageType)

	cached := recent.List(42)
	require.Len(t, cached, 2)
	assert.Equal(t, message_ledger.TypeWarning, cached[1].MessageType)
}

func TestTrackWithoutRecentCache(t *testing.T) {
	c, ledger, _ := trackingConnector(t)
	c.recent = nil
	ctx := context.Background()

	c.track(ctx, 10, 1, message_ledger.TypeBot)
	assert.Len(t, ledger.List(ctx, 10), 1)
}
