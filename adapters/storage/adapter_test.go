package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storformat/internal/config"
	"storformat/internal/errors"
)

func TestMemoryStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("current")

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "storformat:config", `{"products":[]}`, 0))
	v, ok, err := s.Get(ctx, "storformat:config")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"products":[]}`, v)

	require.NoError(t, s.Delete(ctx, "storformat:config"))
	_, ok, _ = s.Get(ctx, "storformat:config")
	assert.False(t, ok)
	assert.Equal(t, "current", s.Name())
}

func TestMemoryStoreKeysArePrefixFilteredAndSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("")
	for _, k := range []string{"storformat:b", "other", "storformat:a", "storformat:c"} {
		require.NoError(t, s.Set(ctx, k, "x", 0))
	}

	keys, err := s.Keys(ctx, "storformat:")
	require.NoError(t, err)
	assert.Equal(t, []string{"storformat:a", "storformat:b", "storformat:c"}, keys)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "payload", "x", time.Minute))
	_, ok, _ := s.Get(ctx, "payload")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = s.Get(ctx, "payload")
	assert.False(t, ok)

	keys, _ := s.Keys(ctx, "")
	assert.Empty(t, keys)
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(config.StoreConfig{Backend: "redis", RedisAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(config.StoreConfig{Backend: "etcd"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestRedisStoreNamespacesKeys(t *testing.T) {
	s := NewRedisStore(RedisOptions{Addr: "127.0.0.1:0", Namespace: "tenant-a/"})
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, "tenant-a/storformat:config", s.key("storformat:config"))
	assert.Equal(t, "redis", s.Name())
}
