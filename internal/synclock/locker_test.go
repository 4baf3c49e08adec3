package synclock

import (
	"context"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "sync:record:REQ-1:u7", RecordKey("REQ-1", "u7"))
}

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	release, err := l.Acquire(ctx, "a")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "a")
	assert.ErrorIs(t, err, ErrLocked)

	other, err := l.Acquire(ctx, "b")
	require.NoError(t, err)
	other()

	release()
	release() // idempotent

	again, err := l.Acquire(ctx, "a")
	require.NoError(t, err)
	again()
}

func TestMemoryLocker_OneWinnerUnderContention(t *testing.T) {
	l := NewMemoryLocker()
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := l.Acquire(context.Background(), "k"); err == nil {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryLocker_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryLocker().Acquire(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRedisClient_NotConfigured(t *testing.T) {
	client, err := NewRedisClient(context.Background(), RedisConfig{})
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestRedisLocker_Integration(t *testing.T) {
	host := os.Getenv("TEST_REDIS_HOST")
	if host == "" {
		t.Skip("TEST_REDIS_HOST not set")
	}
	port := 6379
	if p, err := strconv.Atoi(os.Getenv("TEST_REDIS_PORT")); err == nil {
		port = p
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	defer client.Close()

	key := "sync:test:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	l := NewRedisLocker(client, time.Minute, nil)

	release, err := l.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrLocked)

	release()
	release2, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	release2()
}
