package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/store"
)

var (
	// ErrCacheMiss is returned when a key is not found in cache
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheExpired is returned when a cached value is older than the requested max age
	ErrCacheExpired = errors.New("cache expired")
)

// envelope is the persisted form of every cached value
type envelope struct {
	WrittenAt time.Time       `json:"written_at"`
	Value     json.RawMessage `json:"value"`
}

// Cache stores JSON values over a Store and checks their age lazily on read.
// Nothing expires on its own: an old entry is deleted the first time it is read.
type Cache struct {
	store store.Store
	now   func() time.Time
}

// New creates a cache over st
func New(st store.Store) *Cache {
	return NewWithClock(st, time.Now)
}

// NewWithClock creates a cache with a custom clock
func NewWithClock(st store.Store, now func() time.Time) *Cache {
	return &Cache{store: st, now: now}
}

// Get decodes the value stored under key into dest. A maxAge <= 0 disables the age check.
// Corrupt entries are deleted and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string, maxAge time.Duration, dest any) (time.Time, error) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return time.Time{}, ErrCacheMiss
		}
		return time.Time{}, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Value) == 0 {
		_ = c.store.Delete(ctx, key)
		return time.Time{}, ErrCacheMiss
	}

	// Check if expired
	if maxAge > 0 && c.now().Sub(env.WrittenAt) > maxAge {
		_ = c.store.Delete(ctx, key)
		return time.Time{}, ErrCacheExpired
	}

	if err := json.Unmarshal(env.Value, dest); err != nil {
		_ = c.store.Delete(ctx, key)
		return time.Time{}, ErrCacheMiss
	}

	return env.WrittenAt, nil
}

// Set stores value under key stamped with the current time. When the store is out
// of quota the entry is retried once with shrunk() if provided.
func (c *Cache) Set(ctx context.Context, key string, value any, shrunk func() any) error {
	writtenAt := c.now().UTC()

	data, err := encode(writtenAt, value)
	if err != nil {
		return err
	}

	var shrink store.ShrinkFunc
	if shrunk != nil {
		shrink = func() ([]byte, error) {
			return encode(writtenAt, shrunk())
		}
	}

	return store.SetWithRecovery(ctx, c.store, key, data, []string{key}, shrink)
}

// Delete removes a key from cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

func encode(writtenAt time.Time, value any) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return json.Marshal(envelope{WrittenAt: writtenAt, Value: payload})
}
