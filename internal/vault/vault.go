// Package vault stores placeholder-to-original mappings per session with
// TTL enforcement and an audit trail. The storage contract is
// the one seam designed for substitution: alternative backends must honor
// the same failure semantics as the in-memory reference implementation.
package vault

import (
	"errors"
	"time"

	"github.com/raaihank/llm-shield/internal/entity"
)

// NoExpiry disables expiration when passed as a TTL. This is a deliberate
// configuration choice, never the default.
const NoExpiry = time.Duration(-1)

// Storage errors returned by vault implementations.
var (
	// ErrSessionNotFound means the session is absent or its TTL has lapsed.
	ErrSessionNotFound = errors.New("session not found")
	// ErrMappingNotFound means no mapping exists for the placeholder in the
	// given session.
	ErrMappingNotFound = errors.New("mapping not found")
	// ErrMappingExpired means the mapping's own TTL has lapsed even though
	// the session is still live.
	ErrMappingExpired = errors.New("mapping expired")
)

// Storage is the vault capability set. Implementations must be safe for
// concurrent callers and must perform no autonomous background work:
// eviction is always externally triggered through SweepExpired.
type Storage interface {
	// CreateSession registers a new session and returns its ID. A ttl of
	// NoExpiry creates a session that never expires.
	CreateSession(ttl time.Duration) (string, error)

	// PutMapping stores a mapping in the session. Fails with
	// ErrSessionNotFound if the session is absent or expired.
	PutMapping(sessionID string, mapping entity.Mapping) error

	// GetMapping resolves a placeholder within a session. Every call,
	// successful or not, produces exactly one Accessed audit event.
	GetMapping(sessionID, placeholder string) (entity.Mapping, error)

	// SessionMappings returns the live mappings owned by a session.
	SessionMappings(sessionID string) ([]entity.Mapping, error)

	// DeleteSession removes a session and all its mappings. Idempotent.
	DeleteSession(sessionID string) error

	// SweepExpired evicts expired sessions and mappings, emitting one
	// Expired audit event per eviction, and returns the eviction count.
	SweepExpired() int

	// SessionIDs lists the IDs of live sessions.
	SessionIDs() []string
}
