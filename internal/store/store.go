package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key has no value
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned when a value does not fit the storage budget
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrNotPersisted is returned when a write was given up after recovery
	ErrNotPersisted = errors.New("value not persisted")
)

// DefaultMaxValueBytes mirrors the per-origin budget of browser storage.
const DefaultMaxValueBytes = 5 * 1024 * 1024

// Store is the durable key-value surface shared by the cooldown, result cache,
// hourly quota and leaderboard. Writes are last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Keys owned by one client.
func LastCallKey(clientID string) string   { return fmt.Sprintf("client:%s:last_call", clientID) }
func LastResultKey(clientID string) string { return fmt.Sprintf("client:%s:last_result", clientID) }
func HourlyKey(clientID string) string     { return fmt.Sprintf("client:%s:hourly", clientID) }
func LeaderboardKey(clientID string) string {
	return fmt.Sprintf("client:%s:leaderboard", clientID)
}

// EmergencyConfigKey holds the operator-written emergency document.
const EmergencyConfigKey = "emergency:config"

// ClientKeys lists every key stored on behalf of a client.
func ClientKeys(clientID string) []string {
	return []string{
		LastCallKey(clientID),
		LastResultKey(clientID),
		HourlyKey(clientID),
		LeaderboardKey(clientID),
	}
}
