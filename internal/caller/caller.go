package caller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/cache"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/provider"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/store"
)

const (
	DefaultCooldown     = 15 * time.Second
	DefaultResultMaxAge = 24 * time.Hour
)

// RateLimitState is the persisted cooldown record of one client
type RateLimitState struct {
	LastCallAt time.Time `json:"last_call_at"`
}

// Caller enforces a cooldown between analyses of the same client and never
// lets a backend failure reach the client: failures become mock results.
type Caller struct {
	analyzer     provider.Analyzer
	fallback     provider.Analyzer
	store        store.Store
	results      *cache.Cache
	cooldown     time.Duration
	resultMaxAge time.Duration
	now          func() time.Time
	observer     Observer
	admission    Admission
	logger       *slog.Logger
	locks        *store.KeyedMutex
}

type Option func(*Caller)

func WithCooldown(d time.Duration) Option {
	return func(c *Caller) { c.cooldown = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Caller) { c.now = now }
}

func WithObserver(o Observer) Option {
	return func(c *Caller) { c.observer = o }
}

// WithAdmission puts a quota or maintenance gate in front of every call
func WithAdmission(a Admission) Option {
	return func(c *Caller) { c.admission = a }
}

func WithResultMaxAge(d time.Duration) Option {
	return func(c *Caller) { c.resultMaxAge = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Caller) { c.logger = l }
}

func New(analyzer, fallback provider.Analyzer, st store.Store, opts ...Option) *Caller {
	c := &Caller{
		analyzer:     analyzer,
		fallback:     fallback,
		store:        st,
		cooldown:     DefaultCooldown,
		resultMaxAge: DefaultResultMaxAge,
		now:          time.Now,
		observer:     NopObserver{},
		admission:    openAdmission{},
		logger:       slog.Default(),
		locks:        store.NewKeyedMutex(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.results = cache.NewWithClock(st, c.now)
	c.logger = c.logger.With("component", "caller")
	return c
}

// Call runs req for clientID. The only error a backend problem can produce is
// none at all: the result comes back with IsMock set instead. Errors returned
// here are an invalid request, a cooldown violation, an admission refusal,
// a request abandoned during the delay or a failing fallback.
func (c *Caller) Call(ctx context.Context, clientID string, req Request) (*domain.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := c.claimSlot(ctx, clientID, req.Kind()); err != nil {
		return nil, err
	}
	if err := c.admission.Delay(ctx); err != nil {
		return nil, domain.FromContext(err)
	}

	c.observer.CallStarted(ctx, clientID, req.Kind())

	result, backendErr := c.invoke(ctx, c.analyzer, req)
	if backendErr != nil {
		var partial *provider.PartialFallbackError
		if errors.As(backendErr, &partial) && partial.Result != nil && partial.Result.Validate() == nil {
			result = &domain.AnalysisResult{Kind: domain.KindBattle, IsMock: true, Battle: partial.Result}
		} else {
			c.logger.Warn("analyzer failed, using fallback",
				"client_id", clientID,
				"kind", req.Kind(),
				"provider", c.analyzer.Name(),
				"error", backendErr,
			)

			var err error
			result, err = c.invoke(ctx, c.fallback, req)
			if err != nil {
				c.observer.CallCompleted(ctx, clientID, nil, backendErr)
				return nil, domain.ErrInternal.WithError(fmt.Errorf("fallback failed: %w", err))
			}
			result.IsMock = true
		}
	}

	c.rememberResult(ctx, clientID, result)
	c.observer.CallCompleted(ctx, clientID, result, backendErr)

	return result, nil
}

// claimSlot checks the cooldown, asks the admission and records now as the
// last call, atomically per client
func (c *Caller) claimSlot(ctx context.Context, clientID string, kind domain.AnalysisKind) error {
	unlock := c.locks.Lock(clientID)
	defer unlock()

	now := c.now()
	if remaining := c.remaining(ctx, clientID, now); remaining > 0 {
		c.observer.CallRejected(ctx, clientID, kind, remaining)
		return domain.NewCooldownError(remaining)
	}
	if err := c.admission.Admit(ctx, clientID); err != nil {
		return err
	}

	data, err := json.Marshal(RateLimitState{LastCallAt: now.UTC()})
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}
	if err := store.SetWithRecovery(ctx, c.store, store.LastCallKey(clientID), data, nil, nil); err != nil {
		c.logger.Error("persist last call failed", "client_id", clientID, "error", err)
	}
	return nil
}

// Remaining reports how long clientID still has to wait, 0 if it may call now
func (c *Caller) Remaining(ctx context.Context, clientID string) time.Duration {
	return c.remaining(ctx, clientID, c.now())
}

func (c *Caller) remaining(ctx context.Context, clientID string, now time.Time) time.Duration {
	state, ok := c.loadState(ctx, clientID)
	if !ok {
		return 0
	}
	elapsed := now.Sub(state.LastCallAt)
	if elapsed >= c.cooldown {
		return 0
	}
	// a timestamp in the future (clock skew) still counts as a fresh call
	if elapsed < 0 {
		return c.cooldown
	}
	return c.cooldown - elapsed
}

func (c *Caller) loadState(ctx context.Context, clientID string) (RateLimitState, bool) {
	var state RateLimitState

	data, err := c.store.Get(ctx, store.LastCallKey(clientID))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Error("read last call failed", "client_id", clientID, "error", err)
		}
		return state, false
	}
	if err := json.Unmarshal(data, &state); err != nil || state.LastCallAt.IsZero() {
		c.logger.Warn("discarding corrupt rate limit state", "client_id", clientID)
		_ = c.store.Delete(ctx, store.LastCallKey(clientID))
		return state, false
	}
	return state, true
}

// invoke runs req on a, turning panics and malformed results into errors
func (c *Caller) invoke(ctx context.Context, a provider.Analyzer, req Request) (result *domain.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%s panicked: %v", a.Name(), r)
		}
	}()

	result = &domain.AnalysisResult{Kind: req.Kind()}
	switch r := req.(type) {
	case SingleRequest:
		result.Single, err = a.ScoreSingle(ctx, r.Image, r.Mode)
	case BattleRequest:
		result.Battle, err = a.ScoreBattle(ctx, r.First, r.Second, r.Mode)
	case EnhanceRequest:
		result.Enhance, err = a.Enhance(ctx, r.Image)
	default:
		return nil, fmt.Errorf("unsupported request %T", req)
	}
	if err != nil {
		return nil, err
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%s returned malformed %s result: %w", a.Name(), req.Kind(), err)
	}
	return result, nil
}

func (c *Caller) rememberResult(ctx context.Context, clientID string, result *domain.AnalysisResult) {
	var shrunk func() any
	if result.Kind == domain.KindEnhance {
		shrunk = func() any { return withoutImageData(result) }
	}

	if err := c.results.Set(ctx, store.LastResultKey(clientID), result, shrunk); err != nil {
		c.logger.Error("persist last result failed", "client_id", clientID, "error", err)
	}
}

// LastResult returns the most recent result of clientID if it is younger than the max age.
// It fails with cache.ErrCacheMiss or cache.ErrCacheExpired otherwise.
func (c *Caller) LastResult(ctx context.Context, clientID string) (*domain.AnalysisResult, time.Time, error) {
	var result domain.AnalysisResult
	writtenAt, err := c.results.Get(ctx, store.LastResultKey(clientID), c.resultMaxAge, &result)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &result, writtenAt, nil
}

func (c *Caller) Cooldown() time.Duration {
	return c.cooldown
}

func withoutImageData(result *domain.AnalysisResult) *domain.AnalysisResult {
	cp := *result
	enhance := *result.Enhance
	enhance.Image.Data = nil
	cp.Enhance = &enhance
	return &cp
}
