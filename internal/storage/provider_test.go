package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prestamax/chatbot/internal/config"
)

func TestLocalFileProviderRoundTrip(t *testing.T) {
	p := NewLocalFileProvider(t.TempDir())
	ctx := context.Background()

	exists, err := p.Exists(ctx, "ledger/message_ledger.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, p.Write(ctx, "ledger/message_ledger.json", []byte(`{}`)))

	exists, err = p.Exists(ctx, "ledger/message_ledger.json")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := p.Read(ctx, "ledger/message_ledger.json")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestLocalFileProviderDelete(t *testing.T) {
	p := NewLocalFileProvider(t.TempDir())
	ctx := context.Background()

	// Deleting a missing file is a no-op
	require.NoError(t, p.Delete(ctx, "missing.json"))

	require.NoError(t, p.Write(ctx, "a.json", []byte("x")))
	require.NoError(t, p.Delete(ctx, "a.json"))

	exists, err := p.Exists(ctx, "a.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalFileProviderReadMissing(t *testing.T) {
	p := NewLocalFileProvider(t.TempDir())
	_, err := p.Read(context.Background(), "missing.json")
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (f *fakeS3) PutObject(_ context.Context, bucket, key string, data []byte) error {
	f.objects[bucket+"/"+key] = data
	return nil
}

func (f *fakeS3) HeadObject(_ context.Context, bucket, key string) error {
	if _, ok := f.objects[bucket+"/"+key]; !ok {
		return ErrNotFound
	}
	return nil
}

func (f *fakeS3) DeleteObject(_ context.Context, bucket, key string) error {
	delete(f.objects, bucket+"/"+key)
	return nil
}

func TestS3FileProviderPrefixing(t *testing.T) {
	fake := newFakeS3()
	p := NewS3FileProvider("ledger-bucket", "ledger", fake)
	ctx := context.Background()

	require.NoError(t, p.Write(ctx, "message_ledger.json", []byte(`{}`)))

	_, hasKey := fake.objects["ledger-bucket/ledger/message_ledger.json"]
	assert.True(t, hasKey, "keys should be placed under the configured prefix")

	exists, err := p.Exists(ctx, "message_ledger.json")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = p.Exists(ctx, "other.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, p.Delete(ctx, "message_ledger.json"))
	exists, err = p.Exists(ctx, "message_ledger.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, config.LedgerConfig{Backend: "local", DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalFileProvider{}, p)

	_, err = NewProvider(ctx, config.LedgerConfig{Backend: "ftp"})
	assert.Error(t, err)
}
