package leaderboard

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/store"
)

const (
	DefaultCapacity  = 5
	DefaultRetention = 30 * 24 * time.Hour
)

// Reason explains a Submit outcome
type Reason string

const (
	ReasonAccepted     Reason = "accepted"
	ReasonBelowMinimum Reason = "below_minimum"
)

// SubmitResult is the outcome of Submit. Rank is 1-based and 0 when rejected.
type SubmitResult struct {
	Accepted bool                      `json:"accepted"`
	Reason   Reason                    `json:"reason"`
	Rank     int                       `json:"rank"`
	Evicted  *domain.LeaderboardEntry  `json:"evicted,omitempty"`
	Entries  []domain.LeaderboardEntry `json:"entries"`
}

// Leaderboard keeps the best few scores of each scope (one client) ordered by
// rating descending. Entries older than the retention period are pruned on read.
// Reads and writes of one scope are serialized within the process.
type Leaderboard struct {
	store     store.Store
	locks     *store.KeyedMutex
	capacity  int
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Leaderboard)

func WithClock(now func() time.Time) Option {
	return func(l *Leaderboard) { l.now = now }
}

func WithCapacity(n int) Option {
	return func(l *Leaderboard) { l.capacity = n }
}

func WithRetention(d time.Duration) Option {
	return func(l *Leaderboard) { l.retention = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Leaderboard) { l.logger = logger }
}

func New(st store.Store, opts ...Option) *Leaderboard {
	l := &Leaderboard{
		store:     st,
		locks:     store.NewKeyedMutex(),
		capacity:  DefaultCapacity,
		retention: DefaultRetention,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.capacity < 1 {
		l.capacity = DefaultCapacity
	}
	l.logger = l.logger.With("component", "leaderboard")
	return l
}

// Load returns the scope's entries, best first. Expired entries and entries
// beyond capacity are dropped and the cleaned list is written back.
// A corrupt payload is deleted and reads as empty.
func (l *Leaderboard) Load(ctx context.Context, scope string) ([]domain.LeaderboardEntry, error) {
	unlock := l.locks.Lock(scope)
	defer unlock()

	return l.load(ctx, scope)
}

func (l *Leaderboard) load(ctx context.Context, scope string) ([]domain.LeaderboardEntry, error) {
	key := store.LeaderboardKey(scope)

	data, err := l.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []domain.LeaderboardEntry{}, nil
		}
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	var stored []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		l.logger.Warn("discarding corrupt leaderboard", "scope", scope, "error", err)
		if err := l.store.Delete(ctx, key); err != nil {
			l.logger.Error("delete corrupt leaderboard failed", "scope", scope, "error", err)
		}
		return []domain.LeaderboardEntry{}, nil
	}

	cutoff := l.now().Add(-l.retention)
	entries := lo.Filter(stored, func(e domain.LeaderboardEntry, _ int) bool {
		return !e.CreatedAt.Before(cutoff)
	})
	sortEntries(entries)
	if len(entries) > l.capacity {
		entries = entries[:l.capacity]
	}

	if len(entries) != len(stored) {
		l.persist(ctx, scope, entries)
	}
	return entries, nil
}

// Submit offers entry to the scope's leaderboard. Below capacity it is always
// accepted; at capacity it must beat the current minimum strictly, which is
// then evicted. A rejected entry leaves the stored list untouched.
func (l *Leaderboard) Submit(ctx context.Context, scope string, entry domain.LeaderboardEntry) (SubmitResult, error) {
	unlock := l.locks.Lock(scope)
	defer unlock()

	entries, err := l.load(ctx, scope)
	if err != nil {
		return SubmitResult{}, err
	}

	result := SubmitResult{Accepted: true, Reason: ReasonAccepted}

	if len(entries) >= l.capacity {
		lowest := entries[len(entries)-1]
		if entry.Rating <= lowest.Rating {
			return SubmitResult{Reason: ReasonBelowMinimum, Entries: entries}, nil
		}
		result.Evicted = &lowest
		entries = entries[:len(entries)-1]
	}

	entries = append(entries, entry)
	sortEntries(entries)

	result.Rank = slices.IndexFunc(entries, func(e domain.LeaderboardEntry) bool {
		return e.ID == entry.ID
	}) + 1
	result.Entries = entries

	l.persist(ctx, scope, entries)
	return result, nil
}

// Clear removes the scope's leaderboard
func (l *Leaderboard) Clear(ctx context.Context, scope string) error {
	unlock := l.locks.Lock(scope)
	defer unlock()

	if err := l.store.Delete(ctx, store.LeaderboardKey(scope)); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	return nil
}

// persist writes entries; on quota it retries once without images. Failures
// are logged only, the caller keeps the in-memory list.
func (l *Leaderboard) persist(ctx context.Context, scope string, entries []domain.LeaderboardEntry) {
	key := store.LeaderboardKey(scope)

	data, err := json.Marshal(entries)
	if err != nil {
		l.logger.Error("encode leaderboard failed", "scope", scope, "error", err)
		return
	}

	shrink := func() ([]byte, error) {
		return json.Marshal(lo.Map(entries, func(e domain.LeaderboardEntry, _ int) domain.LeaderboardEntry {
			e.Image = ""
			return e
		}))
	}

	if err := store.SetWithRecovery(ctx, l.store, key, data, []string{key}, shrink); err != nil {
		l.logger.Error("persist leaderboard failed", "scope", scope, "entries", len(entries), "error", err)
	}
}

// sortEntries orders by rating descending; equal ratings keep insertion order
func sortEntries(entries []domain.LeaderboardEntry) {
	slices.SortStableFunc(entries, func(a, b domain.LeaderboardEntry) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
}
