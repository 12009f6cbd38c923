package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreClaim(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore("redis://"+mr.Addr(), "kyara", time.Minute)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	first, err := store.Claim(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, first)
	assert.True(t, mr.Exists("kyara:webhook:evt-1"))

	again, err := store.Claim(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, again)

	mr.FastForward(2 * time.Minute)
	expired, err := store.Claim(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, expired)

	_, err = store.Claim(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore("://nope", "", time.Minute)
	assert.Error(t, err)
}

func TestMemoryStoreClaim(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	ok, err := store.Claim(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = store.Claim(ctx, "evt-1")
	assert.False(t, ok)

	ok, _ = store.Claim(ctx, "evt-2")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = store.Claim(ctx, "evt-1")
	assert.True(t, ok)

	_, err = store.Claim(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestNop(t *testing.T) {
	ok, err := Nop{}.Claim(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, Nop{}.Close())
}

func TestStoresClose(t *testing.T) {
	mr := miniredis.RunT(t)
	redisStore, err := NewRedisStore("redis://"+mr.Addr(), "kyara", time.Minute)
	require.NoError(t, err)

	for name, store := range map[string]Store{
		"memory": NewMemoryStore(time.Minute),
		"nop":    Nop{},
		"redis":  redisStore,
	} {
		assert.NoError(t, store.Close(), name)
	}

	_, err = redisStore.Claim(context.Background(), "ev-1")
	assert.Error(t, err, "claims after Close must fail")
}
