package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/audit"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/cache"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/caller"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/emergency"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/leaderboard"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/store"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/ws"
)

// Publisher pushes events to the open connections of a client
type Publisher interface {
	Publish(clientID string, eventType ws.EventType, data interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, ws.EventType, interface{}) {}

// ClientStatus is what GET /v1/status reports
type ClientStatus struct {
	emergency.Status
	CooldownSeconds          int `json:"cooldown_seconds"`
	CooldownRemainingSeconds int `json:"cooldown_remaining_seconds"`
}

// LastResult is a cached result and when it was produced
type LastResult struct {
	Result    *domain.AnalysisResult `json:"result"`
	CreatedAt time.Time              `json:"created_at"`
}

type FachaService struct {
	controls    *emergency.Controls
	caller      *caller.Caller
	leaderboard *leaderboard.Leaderboard
	store       store.Store
	publisher   Publisher
	audit       audit.Logger
	now         func() time.Time
	logger      *slog.Logger
}

func NewFachaService(
	controls *emergency.Controls,
	c *caller.Caller,
	lb *leaderboard.Leaderboard,
	st store.Store,
) *FachaService {
	return &FachaService{
		controls:    controls,
		caller:      c,
		leaderboard: lb,
		store:       st,
		publisher:   nopPublisher{},
		audit:       &audit.NoOpLogger{},
		now:         time.Now,
		logger:      slog.Default(),
	}
}

func (s *FachaService) WithPublisher(p Publisher) *FachaService {
	s.publisher = p
	return s
}

func (s *FachaService) WithAudit(l audit.Logger) *FachaService {
	s.audit = l
	return s
}

func (s *FachaService) WithClock(now func() time.Time) *FachaService {
	s.now = now
	return s
}

func (s *FachaService) WithLogger(l *slog.Logger) *FachaService {
	s.logger = l
	return s
}

// Analyze runs the rate limited call. The caller is built with the emergency
// controls as its admission, so the cooldown claim and the hourly charge happen
// under one per-client lock and the artificial delay follows them.
func (s *FachaService) Analyze(ctx context.Context, clientID string, req caller.Request) (*domain.AnalysisResult, error) {
	return s.caller.Call(ctx, clientID, req)
}

func (s *FachaService) Status(ctx context.Context, clientID string) (*ClientStatus, error) {
	status, err := s.controls.Status(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("client %s: status: %w", clientID, err)
	}

	remaining := s.caller.Remaining(ctx, clientID)
	return &ClientStatus{
		Status:                   status,
		CooldownSeconds:          int(s.caller.Cooldown() / time.Second),
		CooldownRemainingSeconds: int((remaining + time.Second - 1) / time.Second),
	}, nil
}

func (s *FachaService) LastResult(ctx context.Context, clientID string) (*LastResult, error) {
	result, createdAt, err := s.caller.LastResult(ctx, clientID)
	if errors.Is(err, cache.ErrCacheMiss) || errors.Is(err, cache.ErrCacheExpired) {
		return nil, domain.ErrNoCachedResult.WithError(err)
	}
	if err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("client %s: last result: %w", clientID, err))
	}
	return &LastResult{Result: result, CreatedAt: createdAt}, nil
}

func (s *FachaService) Leaderboard(ctx context.Context, clientID string) ([]domain.LeaderboardEntry, error) {
	return s.leaderboard.Load(ctx, clientID)
}

// SubmitScore copies a single result into a new leaderboard entry and offers it
func (s *FachaService) SubmitScore(ctx context.Context, clientID, name, image string, single domain.SingleResult) (*leaderboard.SubmitResult, error) {
	entry, err := domain.NewLeaderboardEntry(name, image, single, s.now())
	if err != nil {
		return nil, err
	}

	result, err := s.leaderboard.Submit(ctx, clientID, *entry)
	if err != nil {
		return nil, fmt.Errorf("client %s: submit score: %w", clientID, err)
	}

	if result.Accepted {
		s.publisher.Publish(clientID, ws.EventLeaderboardUpdated, result)
	}
	return &result, nil
}

func (s *FachaService) ClearLeaderboard(ctx context.Context, clientID string) error {
	if err := s.leaderboard.Clear(ctx, clientID); err != nil {
		return fmt.Errorf("client %s: %w", clientID, err)
	}
	s.publisher.Publish(clientID, ws.EventLeaderboardCleared, nil)
	return nil
}

// ClearLocalData deletes every key kept for clientID and nothing else
func (s *FachaService) ClearLocalData(ctx context.Context, clientID string) error {
	keys := store.ClientKeys(clientID)
	if err := s.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("client %s: clear data: %w", clientID, err)
	}

	s.publisher.Publish(clientID, ws.EventLeaderboardCleared, nil)
	s.logger.Info("local data cleared", "client_id", clientID)
	_ = s.audit.Log(ctx, audit.Event{
		ClientID:  clientID,
		EventType: audit.EventDataCleared,
		Success:   true,
		Metadata:  map[string]string{"keys": strconv.Itoa(len(keys))},
	})
	return nil
}

func (s *FachaService) EmergencyConfig(ctx context.Context) domain.EmergencyConfig {
	return s.controls.Config(ctx)
}

func (s *FachaService) UpdateEmergencyConfig(ctx context.Context, cfg domain.EmergencyConfig, operator string) error {
	if err := s.controls.Update(ctx, cfg); err != nil {
		return err
	}

	_ = s.audit.Log(ctx, audit.Event{
		EventType: audit.EventEmergencyUpdated,
		Success:   true,
		Metadata: map[string]string{
			"operator":              operator,
			"maintenance_mode":      strconv.FormatBool(cfg.MaintenanceMode),
			"max_requests_per_hour": strconv.Itoa(cfg.MaxRequestsPerHour),
			"request_delay_seconds": strconv.Itoa(cfg.RequestDelaySeconds),
		},
	})
	return nil
}
