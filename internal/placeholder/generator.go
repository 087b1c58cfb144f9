// Package placeholder mints session-scoped placeholder tokens for detected
// entities. Counters are independent per entity kind and per generator, so
// uniqueness is per-session, not global.
package placeholder

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/raaihank/llm-shield/internal/entity"
)

// Format selects how placeholders are rendered.
type Format string

// Supported placeholder formats.
const (
	// FormatNumbered renders [PREFIX_N] with a per-kind counter starting at 1.
	FormatNumbered Format = "numbered"
	// FormatUUID renders [PREFIX_<uuid>] with a fresh random identifier.
	FormatUUID Format = "uuid"
	// FormatHashed renders [PREFIX_<hash>] with a deterministic hash of the
	// original value, de-duplicating repeated instances within a session.
	FormatHashed Format = "hashed"
)

// Valid reports whether f is a known placeholder format.
func (f Format) Valid() bool {
	switch f {
	case FormatNumbered, FormatUUID, FormatHashed:
		return true
	}
	return false
}

// hashLength is the number of hex characters kept from the value hash in
// the hashed format.
const hashLength = 12

// Generator mints placeholders for one session. Safe for concurrent use;
// the counter lock is held only for the increment-and-read.
type Generator struct {
	mu        sync.Mutex
	counters  map[entity.Kind]int
	sessionID string
	format    Format
}

// NewGenerator creates a generator with a fresh session ID.
func NewGenerator(format Format) *Generator {
	return &Generator{
		counters:  make(map[entity.Kind]int),
		sessionID: NewSessionID(),
		format:    format,
	}
}

// NewGeneratorForSession creates a generator bound to an existing session.
func NewGeneratorForSession(sessionID string, format Format) *Generator {
	return &Generator{
		counters:  make(map[entity.Kind]int),
		sessionID: sessionID,
		format:    format,
	}
}

// NewSessionID returns a fresh session identifier of the form sess_<12 hex>.
func NewSessionID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "sess_" + raw[:12]
}

// SessionID returns the session this generator mints placeholders for.
func (g *Generator) SessionID() string {
	return g.sessionID
}

// Generate mints the next placeholder for the match's kind.
func (g *Generator) Generate(match entity.Match) string {
	prefix := match.Kind.Prefix()

	switch g.format {
	case FormatUUID:
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		return fmt.Sprintf("[%s_%s]", prefix, raw)
	case FormatHashed:
		sum := sha256.Sum256([]byte(match.Value))
		return fmt.Sprintf("[%s_%s]", prefix, hex.EncodeToString(sum[:])[:hashLength])
	default:
		g.mu.Lock()
		g.counters[match.Kind]++
		n := g.counters[match.Kind]
		g.mu.Unlock()
		return fmt.Sprintf("[%s_%d]", prefix, n)
	}
}

// GenerateBatch mints placeholders for the matches in order.
func (g *Generator) GenerateBatch(matches []entity.Match) []string {
	placeholders := make([]string, len(matches))
	for i, m := range matches {
		placeholders[i] = g.Generate(m)
	}
	return placeholders
}
