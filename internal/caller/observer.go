package caller

import (
	"context"
	"time"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
)

// Observer receives analytics about every call. Implementations must not block.
type Observer interface {
	CallStarted(ctx context.Context, clientID string, kind domain.AnalysisKind)
	CallRejected(ctx context.Context, clientID string, kind domain.AnalysisKind, remaining time.Duration)
	// CallCompleted reports the returned result; backendErr is the failure that
	// was absorbed by the fallback, nil for real results.
	CallCompleted(ctx context.Context, clientID string, result *domain.AnalysisResult, backendErr error)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) CallStarted(context.Context, string, domain.AnalysisKind) {}
func (NopObserver) CallRejected(context.Context, string, domain.AnalysisKind, time.Duration) {
}
func (NopObserver) CallCompleted(context.Context, string, *domain.AnalysisResult, error) {}
