package vault

import (
	"time"

	"github.com/raaihank/llm-shield/internal/entity"
	"github.com/raaihank/llm-shield/internal/logger"
	"go.uber.org/zap"
)

// EventKind classifies an audit event.
type EventKind string

// Audit event kinds.
const (
	EventCreated  EventKind = "created"
	EventAccessed EventKind = "accessed"
	EventExpired  EventKind = "expired"
	EventDeleted  EventKind = "deleted"
)

// Outcome records how the audited operation concluded.
type Outcome string

// Audit outcomes.
const (
	OutcomeSuccess  Outcome = "success"
	OutcomeDenied   Outcome = "denied"
	OutcomeNotFound Outcome = "not_found"
)

// Event is a single audit record. It carries only metadata — never the
// original sensitive value — so the audit trail itself cannot leak PII.
type Event struct {
	Timestamp  time.Time   `json:"timestamp"`
	SessionID  string      `json:"session_id"`
	Kind       EventKind   `json:"kind"`
	EntityKind entity.Kind `json:"entity_kind,omitempty"`
	Outcome    Outcome     `json:"outcome"`
}

// Sink receives audit events synchronously with the operation they
// describe. Durable storage and export are the consuming system's job.
type Sink interface {
	Record(event Event)
}

// LogSink writes audit events to the structured log.
type LogSink struct {
	logger *logger.Logger
}

// NewLogSink creates a sink backed by the given logger.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log.WithComponent("audit")}
}

// Record logs the event with a partially redacted session ID.
func (s *LogSink) Record(event Event) {
	fields := []zap.Field{
		zap.String("event_kind", string(event.Kind)),
		zap.String("session_id", RedactSessionID(event.SessionID)),
		zap.String("outcome", string(event.Outcome)),
	}
	if event.EntityKind != "" {
		fields = append(fields, zap.String("entity_kind", string(event.EntityKind)))
	}
	s.logger.Info("Vault audit event", fields...)
}

// MultiSink fans an event out to several sinks.
type MultiSink []Sink

// Record delivers the event to every sink in order.
func (m MultiSink) Record(event Event) {
	for _, sink := range m {
		sink.Record(event)
	}
}

// NopSink discards all events.
type NopSink struct{}

// Record discards the event.
func (NopSink) Record(Event) {}

// RedactSessionID keeps only a short prefix of a session ID for logging.
func RedactSessionID(sessionID string) string {
	if len(sessionID) <= 8 {
		if len(sessionID) > 4 {
			sessionID = sessionID[:4]
		}
		return sessionID + "****"
	}
	return sessionID[:8] + "****"
}
