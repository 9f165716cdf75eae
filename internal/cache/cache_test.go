package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/store"
)

const testKey = "client:abc:last_result"

type payload struct {
	Name string `json:"name"`
	Blob string `json:"blob,omitempty"`
}

func newTestCache(t *testing.T, st store.Store) (*Cache, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewWithClock(st, func() time.Time { return now }), &now
}

func TestCache_SetGet(t *testing.T) {
	st := store.NewMemoryStore()
	c, _ := newTestCache(t, st)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testKey, payload{Name: "facha"}, nil))

	var got payload
	writtenAt, err := c.Get(ctx, testKey, 24*time.Hour, &got)
	require.NoError(t, err)
	assert.Equal(t, "facha", got.Name)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), writtenAt)
}

func TestCache_Miss(t *testing.T) {
	c, _ := newTestCache(t, store.NewMemoryStore())

	var got payload
	_, err := c.Get(context.Background(), "missing:key", time.Hour, &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_ExpiredIsDeleted(t *testing.T) {
	st := store.NewMemoryStore()
	c, now := newTestCache(t, st)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testKey, payload{Name: "old"}, nil))

	*now = now.Add(24*time.Hour + time.Second)

	var got payload
	_, err := c.Get(ctx, testKey, 24*time.Hour, &got)
	assert.ErrorIs(t, err, ErrCacheExpired)

	_, err = st.Get(ctx, testKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCache_ExactlyMaxAgeStillValid(t *testing.T) {
	c, now := newTestCache(t, store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testKey, payload{Name: "edge"}, nil))
	*now = now.Add(24 * time.Hour)

	var got payload
	_, err := c.Get(ctx, testKey, 24*time.Hour, &got)
	assert.NoError(t, err)
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	st := store.NewMemoryStore()
	c, _ := newTestCache(t, st)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, testKey, []byte("{not json")))

	var got payload
	_, err := c.Get(ctx, testKey, time.Hour, &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, st.Len())
}

func TestCache_SetShrinksOnQuota(t *testing.T) {
	st := store.NewMemoryStoreWithBudget(120)
	c, _ := newTestCache(t, st)
	ctx := context.Background()

	big := payload{Name: "big", Blob: string(make([]byte, 200))}
	err := c.Set(ctx, testKey, big, func() any { return payload{Name: "big"} })
	require.NoError(t, err)

	var got payload
	_, err = c.Get(ctx, testKey, 0, &got)
	require.NoError(t, err)
	assert.Equal(t, "big", got.Name)
	assert.Empty(t, got.Blob)
}

func TestCache_SetWithoutShrinkGivesUp(t *testing.T) {
	st := store.NewMemoryStoreWithBudget(20)
	c, _ := newTestCache(t, st)

	err := c.Set(context.Background(), testKey, payload{Name: "far too large for the budget"}, nil)
	assert.ErrorIs(t, err, store.ErrNotPersisted)
}
