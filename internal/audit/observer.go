package audit

import (
	"context"
	"time"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
)

// Observer turns caller notifications into audit events. Logging failures are ignored.
type Observer struct {
	logger Logger
}

func NewObserver(logger Logger) *Observer {
	return &Observer{logger: logger}
}

func (o *Observer) CallStarted(ctx context.Context, clientID string, kind domain.AnalysisKind) {
	_ = o.logger.Log(ctx, Event{
		ClientID:  clientID,
		EventType: EventAnalysisStarted,
		Kind:      string(kind),
		Success:   true,
	})
}

func (o *Observer) CallRejected(ctx context.Context, clientID string, kind domain.AnalysisKind, remaining time.Duration) {
	_ = o.logger.Log(ctx, Event{
		ClientID:  clientID,
		EventType: EventAnalysisRejected,
		Kind:      string(kind),
		Error:     domain.ErrRateLimited.Code,
		Metadata:  secondsMeta(remaining),
	})
}

func (o *Observer) CallCompleted(ctx context.Context, clientID string, result *domain.AnalysisResult, backendErr error) {
	event := Event{
		ClientID:  clientID,
		EventType: EventAnalysisCompleted,
		Success:   result != nil,
	}
	if result != nil {
		event.Kind = string(result.Kind)
		event.IsMock = result.IsMock
	}
	if backendErr != nil {
		event.EventType = EventAnalysisFallback
		event.Error = backendErr.Error()
	}
	_ = o.logger.Log(ctx, event)
}
