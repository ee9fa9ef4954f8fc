package redis

import (
	"context"
	"testing"
	"time"

	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/shared/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         "localhost:6379",
		DB:           15,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func newTestStorage(t *testing.T, ttl time.Duration) (*ClientStorage, *redis.Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client := createTestRedisClient()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available for testing:", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewClientStorage(client, "afi-test-"+uuid.NewString(), ttl, logger.Nop()), client
}

func TestClientStorage_RoundTrip(t *testing.T) {
	store, _ := newTestStorage(t, 0)
	ctx := context.Background()

	_, err := store.GetItem(ctx, "c1", "user")
	assert.ErrorIs(t, err, repository.ErrItemNotFound)

	require.NoError(t, store.SetItem(ctx, "c1", "user", []byte(`{"access_token":"t"}`)))
	v, err := store.GetItem(ctx, "c1", "user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"t"}`, string(v))

	_, err = store.GetItem(ctx, "c2", "user")
	assert.ErrorIs(t, err, repository.ErrItemNotFound)

	require.NoError(t, store.RemoveItem(ctx, "c1", "user"))
	require.NoError(t, store.RemoveItem(ctx, "c1", "user"))
	_, err = store.GetItem(ctx, "c1", "user")
	assert.ErrorIs(t, err, repository.ErrItemNotFound)
}

func TestClientStorage_IdleTTL(t *testing.T) {
	store, client := newTestStorage(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.SetItem(ctx, "c1", "user", []byte("x")))
	ttl, err := client.TTL(ctx, store.key("c1", "user")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = store.GetItem(ctx, "c1", "user")
	require.NoError(t, err)
	require.NoError(t, store.RemoveItem(ctx, "c1", "user"))
}

func TestClientStorage_NoTTLByDefault(t *testing.T) {
	store, client := newTestStorage(t, 0)
	ctx := context.Background()

	require.NoError(t, store.SetItem(ctx, "c1", "user", []byte("x")))
	ttl, err := client.TTL(ctx, store.key("c1", "user")).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
	require.NoError(t, store.RemoveItem(ctx, "c1", "user"))
}
