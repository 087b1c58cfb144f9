package vault

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/raaihank/llm-shield/internal/entity"
	"github.com/raaihank/llm-shield/internal/logger"
	"github.com/raaihank/llm-shield/internal/placeholder"
	"go.uber.org/zap"
)

// session owns all mappings produced within one anonymization scope.
// lastAccessed is atomic so lookups can refresh it under the read lock.
type session struct {
	id           string
	createdAt    time.Time
	expiresAt    time.Time // zero means the session never expires
	lastAccessed atomic.Int64
	mappings     map[string]entity.Mapping
}

func (s *session) expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && now.After(s.expiresAt)
}

func (s *session) touch(now time.Time) {
	s.lastAccessed.Store(now.UnixNano())
}

// Memory is the in-memory reference vault. Reads share a read lock so
// concurrent lookups do not block each other; mutations are exclusive.
// It performs no background work of its own.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*session
	audit    Sink
	logger   *logger.Logger

	// now is the clock used for TTL decisions; replaceable in tests.
	now func() time.Time
}

// NewMemory creates an empty in-memory vault reporting to the given audit
// sink.
func NewMemory(audit Sink, log *logger.Logger) *Memory {
	return &Memory{
		sessions: make(map[string]*session),
		audit:    audit,
		logger:   log.WithComponent("vault"),
		now:      time.Now,
	}
}

// CreateSession registers a new session and returns its ID.
func (v *Memory) CreateSession(ttl time.Duration) (string, error) {
	now := v.now()
	s := &session{
		id:        placeholder.NewSessionID(),
		createdAt: now,
		mappings:  make(map[string]entity.Mapping),
	}
	if ttl != NoExpiry {
		s.expiresAt = now.Add(ttl)
	}
	s.touch(now)

	v.mu.Lock()
	v.sessions[s.id] = s
	v.mu.Unlock()

	v.audit.Record(Event{
		Timestamp: now,
		SessionID: s.id,
		Kind:      EventCreated,
		Outcome:   OutcomeSuccess,
	})

	v.logger.Debug("Session created",
		zap.String("session_id", RedactSessionID(s.id)),
		zap.Duration("ttl", ttl),
	)

	return s.id, nil
}

// PutMapping stores a mapping in the session, keyed by its placeholder.
func (v *Memory) PutMapping(sessionID string, mapping entity.Mapping) error {
	now := v.now()

	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.sessions[sessionID]
	if !ok || s.expired(now) {
		return ErrSessionNotFound
	}

	s.mappings[mapping.Placeholder] = mapping
	s.touch(now)
	return nil
}

// GetMapping resolves a placeholder within a session. Exactly one Accessed
// audit event is produced whether the lookup succeeds or fails; the event
// never carries the recovered original value.
func (v *Memory) GetMapping(sessionID, placeholder string) (entity.Mapping, error) {
	now := v.now()

	v.mu.RLock()
	s, ok := v.sessions[sessionID]
	var (
		mapping entity.Mapping
		found   bool
	)
	if ok {
		mapping, found = s.mappings[placeholder]
	}
	v.mu.RUnlock()

	event := Event{
		Timestamp: now,
		SessionID: sessionID,
		Kind:      EventAccessed,
	}

	switch {
	case !ok:
		event.Outcome = OutcomeNotFound
		v.audit.Record(event)
		return entity.Mapping{}, ErrSessionNotFound
	case s.expired(now):
		event.Outcome = OutcomeDenied
		v.audit.Record(event)
		return entity.Mapping{}, ErrSessionNotFound
	case !found:
		event.Outcome = OutcomeNotFound
		v.audit.Record(event)
		return entity.Mapping{}, ErrMappingNotFound
	case mapping.Expired(now):
		// Mapping TTL and session TTL are independent clocks.
		event.EntityKind = mapping.Kind
		event.Outcome = OutcomeDenied
		v.audit.Record(event)
		return entity.Mapping{}, ErrMappingExpired
	}

	s.touch(now)
	event.EntityKind = mapping.Kind
	event.Outcome = OutcomeSuccess
	v.audit.Record(event)
	return mapping, nil
}

// SessionMappings returns the live mappings owned by a session.
func (v *Memory) SessionMappings(sessionID string) ([]entity.Mapping, error) {
	now := v.now()

	v.mu.RLock()
	defer v.mu.RUnlock()

	s, ok := v.sessions[sessionID]
	if !ok || s.expired(now) {
		return nil, ErrSessionNotFound
	}

	mappings := make([]entity.Mapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		if !m.Expired(now) {
			mappings = append(mappings, m)
		}
	}
	return mappings, nil
}

// DeleteSession removes a session and all its mappings. Idempotent.
func (v *Memory) DeleteSession(sessionID string) error {
	now := v.now()

	v.mu.Lock()
	_, existed := v.sessions[sessionID]
	delete(v.sessions, sessionID)
	v.mu.Unlock()

	event := Event{
		Timestamp: now,
		SessionID: sessionID,
		Kind:      EventDeleted,
		Outcome:   OutcomeSuccess,
	}
	if !existed {
		event.Outcome = OutcomeNotFound
	}
	v.audit.Record(event)

	return nil
}

// SweepExpired evicts expired sessions and expired mappings inside live
// sessions, emitting one Expired audit event per eviction. Invoked by a
// caller-owned timer, never by the vault itself.
func (v *Memory) SweepExpired() int {
	now := v.now()
	var events []Event

	v.mu.Lock()
	for id, s := range v.sessions {
		if s.expired(now) {
			delete(v.sessions, id)
			events = append(events, Event{
				Timestamp: now,
				SessionID: id,
				Kind:      EventExpired,
				Outcome:   OutcomeSuccess,
			})
			continue
		}
		for key, m := range s.mappings {
			if m.Expired(now) {
				delete(s.mappings, key)
				events = append(events, Event{
					Timestamp:  now,
					SessionID:  id,
					Kind:       EventExpired,
					EntityKind: m.Kind,
					Outcome:    OutcomeSuccess,
				})
			}
		}
	}
	v.mu.Unlock()

	// Emit outside the lock so a slow sink cannot stall the vault.
	for _, e := range events {
		v.audit.Record(e)
	}

	if len(events) > 0 {
		v.logger.Debug("Expired entries evicted", zap.Int("count", len(events)))
	}

	return len(events)
}

// SessionIDs lists the IDs of live sessions.
func (v *Memory) SessionIDs() []string {
	now := v.now()

	v.mu.RLock()
	defer v.mu.RUnlock()

	ids := make([]string, 0, len(v.sessions))
	for id, s := range v.sessions {
		if !s.expired(now) {
			ids = append(ids, id)
		}
	}
	return ids
}
