package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, maxValueBytes int) *RedisStore {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	st := NewRedisStore(RedisConfig{
		Addr:          addr,
		DB:            15,
		KeyPrefix:     "onlyfachas-test:" + t.Name() + ":",
		MaxValueBytes: maxValueBytes,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	st := newTestRedisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "k", []byte("v")))

	value, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	require.NoError(t, st.Delete(ctx, "k"))
	_, err = st.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Budget(t *testing.T) {
	st := newTestRedisStore(t, 3)

	err := st.Set(context.Background(), "k", []byte("four"))
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}
