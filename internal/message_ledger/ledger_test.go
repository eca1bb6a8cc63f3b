package message_ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prestamax/chatbot/internal/storage"
	"github.com/prestamax/chatbot/pkg/logger"
)

const testFile = "message_ledger.json"

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Format: "text"})
}

func setupLedger(t *testing.T) (*Ledger, storage.FileProvider) {
	t.Helper()

	provider := storage.NewLocalFileProvider(t.TempDir())
	l, err := New(Config{
		File:     testFile,
		Provider: provider,
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	return l, provider
}

func TestNewValidation(t *testing.T) {
	provider := storage.NewLocalFileProvider(t.TempDir())

	tests := []struct {
		name   string
		config Config
	}{
		{name: "missing file", config: Config{Provider: provider, Logger: testLogger()}},
		{name: "missing provider", config: Config{File: testFile, Logger: testLogger()}},
		{name: "missing logger", config: Config{File: testFile, Provider: provider}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			assert.Error(t, err)
		})
	}
}

func TestTrackIdempotent(t *testing.T) {
	l, _ := setupLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Track(ctx, 555, 101, TypeBot))
	require.NoError(t, l.Track(ctx, 555, 101, TypeBot))

	messages := l.List(ctx, 555)
	require.Len(t, messages, 1)
	assert.Equal(t, 101, messages[0].MessageID)
	assert.Equal(t, TypeBot, messages[0].MessageType)
}

func TestTrackPreservesInsertionOrder(t *testing.T) {
	l, _ := setupLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Track(ctx, 555, 101, TypeBot))
	require.NoError(t, l.Track(ctx, 555, 102, TypeUser))
	require.NoError(t, l.Track(ctx, 555, 103, TypeWarning))

	messages := l.List(ctx, 555)
	require.Len(t, messages, 3)
	assert.Equal(t, 101, messages[0].MessageID)
	assert.Equal(t, 102, messages[1].MessageID)
	assert.Equal(t, 103, messages[2].MessageID)
}

func TestListUnknownChat(t *testing.T) {
	l, _ := setupLedger(t)
	assert.Empty(t, l.List(context.Background(), 777))
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	provider := storage.NewLocalFileProvider(t.TempDir())

	l, err := New(Config{File: testFile, Provider: provider, Logger: testLogger()})
	require.NoError(t, err)
	require.NoError(t, l.Track(ctx, 42, 7, TypeBot))
	require.NoError(t, l.Track(ctx, 42, 8, TypeUser))

	// A fresh ledger over the same provider sees the persisted history.
	reloaded, err := New(Config{File: testFile, Provider: provider, Logger: testLogger()})
	require.NoError(t, err)

	messages := reloaded.List(ctx, 42)
	require.Len(t, messages, 2)
	assert.Equal(t, 7, messages[0].MessageID)

	_, ok := reloaded.LastActivity(42)
	assert.True(t, ok)
}

func TestCorruptDocumentStartsEmpty(t *testing.T) {
	ctx := context.Background()
	provider := storage.NewLocalFileProvider(t.TempDir())
	require.NoError(t, provider.Write(ctx, testFile, []byte("{not json")))

	l, err := New(Config{File: testFile, Provider: provider, Logger: testLogger()})
	require.NoError(t, err, "corrupt document must not fail startup")
	assert.Empty(t, l.List(ctx, 1))
}

func TestClear(t *testing.T) {
	l, _ := setupLedger(t)
	ctx := context.Background()

	removed, err := l.Clear(ctx, 555)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, l.Track(ctx, 555, 101, TypeBot))

	removed, err = l.Clear(ctx, 555)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, l.List(ctx, 555))
}

func TestSweep(t *testing.T) {
	l, _ := setupLedger(t)
	ctx := context.Background()

	current := time.Now()
	l.now = func() time.Time { return current.Add(-48 * time.Hour) }
	require.NoError(t, l.Track(ctx, 1, 10, TypeBot))

	l.now = func() time.Time { return current }
	require.NoError(t, l.Track(ctx, 2, 20, TypeBot))

	removed, err := l.Sweep(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.Empty(t, l.List(ctx, 1))
	assert.Len(t, l.List(ctx, 2), 1)

	// Nothing left to sweep
	removed, err = l.Sweep(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

type failingProvider struct {
	storage.FileProvider
	failWrites bool
}

func (f *failingProvider) Write(ctx context.Context, path string, data []byte) error {
	if f.failWrites {
		return errors.New("disk full")
	}
	return f.FileProvider.Write(ctx, path, data)
}

func TestWriteFailureIsSurfacedButEntryKept(t *testing.T) {
	ctx := context.Background()
	provider := &failingProvider{FileProvider: storage.NewLocalFileProvider(t.TempDir())}

	l, err := New(Config{File: testFile, Provider: provider, Logger: testLogger()})
	require.NoError(t, err)

	provider.failWrites = true
	err = l.Track(ctx, 555, 101, TypeBot)
	require.Error(t, err, "persist failures must be observable")

	// The entry survives in memory so deletion can still find it.
	assert.Len(t, l.List(ctx, 555), 1)
}

func TestLedgerFileLocation(t *testing.T) {
	dir := t.TempDir()
	provider := storage.NewLocalFileProvider(dir)

	l, err := New(Config{File: testFile, Provider: provider, Logger: testLogger()})
	require.NoError(t, err)
	require.NoError(t, l.Track(context.Background(), 9, 1, TypeBot))

	assert.FileExists(t, filepath.Join(dir, testFile))
}
