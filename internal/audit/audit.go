package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventAnalysisStarted   EventType = "ANALYSIS_STARTED"
	EventAnalysisRejected  EventType = "ANALYSIS_REJECTED"
	EventAnalysisCompleted EventType = "ANALYSIS_COMPLETED"
	EventAnalysisFallback  EventType = "ANALYSIS_FALLBACK"
	EventEmergencyUpdated  EventType = "EMERGENCY_UPDATED"
	EventDataCleared       EventType = "DATA_CLEARED"
)

// Event represents one analytics record
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	ClientID  string            `json:"client_id"`
	EventType EventType         `json:"event_type"`
	Kind      string            `json:"kind,omitempty"`
	IsMock    bool              `json:"is_mock"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("client_id", event.ClientID),
		slog.String("kind", event.Kind),
		slog.Bool("is_mock", event.IsMock),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}

	l.logger.InfoContext(ctx, "audit_event", attrs...)
	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}

// Metadata helpers
func secondsMeta(d time.Duration) map[string]string {
	return map[string]string{"remaining_seconds": strconv.Itoa(int(d.Round(time.Second) / time.Second))}
}
