package redis

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestClient(t *testing.T) *Client {
	if testing.Short() {
		t.Skip("Skipping redis integration test in short mode")
	}
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("REDIS_PORT"))
	if port == 0 {
		port = 6379
	}

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	client, err := NewClient(context.Background(), Config{Host: host, Port: port}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLocker_Exclusive(t *testing.T) {
	client := getTestClient(t)
	ctx := context.Background()
	locker := NewLocker(client, "fern:test:lock:")
	key := uuid.New().String()

	lock, err := locker.Acquire(ctx, key, 5*time.Second)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, key, 5*time.Second)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	require.NoError(t, lock.Release(ctx))
	assert.ErrorIs(t, lock.Release(ctx), ErrLockNotHeld)
}

func TestLocker_WithLock(t *testing.T) {
	client := getTestClient(t)
	ctx := context.Background()
	locker := NewLocker(client, "fern:test:lock:")
	key := uuid.New().String()

	ran := false
	err := locker.WithLock(ctx, key, 5*time.Second, func(ctx context.Context) error {
		ran = true
		_, err := locker.Acquire(ctx, key, time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	lock, err := locker.Acquire(ctx, key, time.Second)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))
}

func TestClient_GetSet(t *testing.T) {
	client := getTestClient(t)
	ctx := context.Background()
	key := "fern:test:" + uuid.New().String()

	_, ok, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, client.Set(ctx, key, []byte("value"), time.Minute))
	val, ok, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", string(val))
	require.NoError(t, client.Del(ctx, key))
}
