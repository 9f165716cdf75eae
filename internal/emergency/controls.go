package emergency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/store"
)

// Window is the span of the hourly quota
const Window = time.Hour

// Status is what a client sees of the emergency controls
type Status struct {
	MaintenanceMode           bool          `json:"maintenance_mode"`
	RemainingRequestsThisHour int           `json:"remaining_requests_this_hour"` // -1 when unlimited
	ArtificialDelay           time.Duration `json:"-"`
	ArtificialDelaySeconds    int           `json:"artificial_delay_seconds"`
}

// Controls gates analyses behind the operator switches: maintenance mode,
// an hourly sliding-window quota per client and an artificial delay.
type Controls struct {
	store      store.Store
	defaults   domain.EmergencyConfig
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
	httpClient *http.Client
	logger     *slog.Logger

	mu sync.Mutex // serializes the read-modify-write of hourly lists
}

type Option func(*Controls)

func WithClock(now func() time.Time) Option {
	return func(c *Controls) { c.now = now }
}

// WithSleep replaces the delay implementation
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controls) { c.sleep = sleep }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Controls) { c.httpClient = client }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controls) { c.logger = logger }
}

func NewControls(st store.Store, defaults domain.EmergencyConfig, opts ...Option) *Controls {
	c := &Controls{
		store:      st,
		defaults:   defaults,
		now:        time.Now,
		sleep:      sleepContext,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "emergency")
	return c
}

// Config returns the operator document if one is stored and valid, else the defaults
func (c *Controls) Config(ctx context.Context) domain.EmergencyConfig {
	data, err := c.store.Get(ctx, store.EmergencyConfigKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Error("read emergency config failed", "error", err)
		}
		return c.defaults
	}

	var cfg domain.EmergencyConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		c.logger.Warn("ignoring corrupt emergency config", "error", err)
		return c.defaults
	}
	if err := cfg.Validate(); err != nil {
		c.logger.Warn("ignoring invalid emergency config", "error", err)
		return c.defaults
	}
	return cfg
}

// Update validates and stores a new operator document
func (c *Controls) Update(ctx context.Context, cfg domain.EmergencyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode emergency config: %w", err)
	}
	if err := c.store.Set(ctx, store.EmergencyConfigKey, data); err != nil {
		return fmt.Errorf("persist emergency config: %w", err)
	}

	c.logger.Info("emergency config updated",
		"maintenance_mode", cfg.MaintenanceMode,
		"max_requests_per_hour", cfg.MaxRequestsPerHour,
		"request_delay_seconds", cfg.RequestDelaySeconds,
	)
	return nil
}

// Reset drops the operator document so the defaults apply again
func (c *Controls) Reset(ctx context.Context) error {
	return c.store.Delete(ctx, store.EmergencyConfigKey)
}

// LoadRemote fetches the emergency document from url and stores it.
// Failures leave the current config in place.
func (c *Controls) LoadRemote(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch emergency config: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch emergency config: status %d", resp.StatusCode)
	}

	var cfg domain.EmergencyConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return fmt.Errorf("decode emergency config: %w", err)
	}
	return c.Update(ctx, cfg)
}

// Status reports the controls as they apply to clientID right now
func (c *Controls) Status(ctx context.Context, clientID string) (Status, error) {
	cfg := c.Config(ctx)
	status := Status{
		MaintenanceMode:           cfg.MaintenanceMode,
		RemainingRequestsThisHour: -1,
		ArtificialDelay:           cfg.Delay(),
		ArtificialDelaySeconds:    cfg.RequestDelaySeconds,
	}
	if cfg.Unlimited() {
		return status, nil
	}

	calls, err := c.recentCalls(ctx, clientID, c.now())
	if err != nil {
		return Status{}, err
	}
	status.RemainingRequestsThisHour = max(cfg.MaxRequestsPerHour-len(calls), 0)
	return status, nil
}

// Admit lets one analysis of clientID through or explains why not.
// An admitted call is counted against the hourly quota immediately.
func (c *Controls) Admit(ctx context.Context, clientID string) error {
	cfg := c.Config(ctx)
	if cfg.MaintenanceMode {
		return domain.ErrMaintenanceMode
	}
	if cfg.Unlimited() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	calls, err := c.recentCalls(ctx, clientID, now)
	if err != nil {
		return err
	}

	if len(calls) >= cfg.MaxRequestsPerHour {
		// the oldest call still in the window frees the next slot
		retryAfter := calls[0].Add(Window).Sub(now)
		return domain.NewQuotaError(retryAfter)
	}

	calls = append(calls, now.UTC())
	data, err := json.Marshal(calls)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}
	if err := store.SetWithRecovery(ctx, c.store, store.HourlyKey(clientID), data, nil, nil); err != nil {
		c.logger.Error("persist hourly calls failed", "client_id", clientID, "error", err)
	}
	return nil
}

// Delay blocks for the configured artificial delay, returning early only when ctx is done
func (c *Controls) Delay(ctx context.Context) error {
	d := c.Config(ctx).Delay()
	if d <= 0 {
		return nil
	}
	return c.sleep(ctx, d)
}

// recentCalls returns the accepted call times inside the window ending at now, oldest first
func (c *Controls) recentCalls(ctx context.Context, clientID string, now time.Time) ([]time.Time, error) {
	data, err := c.store.Get(ctx, store.HourlyKey(clientID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read hourly calls: %w", err)
	}

	var calls []time.Time
	if err := json.Unmarshal(data, &calls); err != nil {
		c.logger.Warn("discarding corrupt hourly calls", "client_id", clientID, "error", err)
		_ = c.store.Delete(ctx, store.HourlyKey(clientID))
		return nil, nil
	}

	cutoff := now.Add(-Window)
	calls = lo.Filter(calls, func(t time.Time, _ int) bool {
		return t.After(cutoff)
	})
	slices.SortFunc(calls, func(a, b time.Time) int { return a.Compare(b) })
	return calls, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
