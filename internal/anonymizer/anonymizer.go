// Package anonymizer composes detection, placeholder generation and the
// session vault into the anonymize/deanonymize pair. Partial results are
// never returned: a half-anonymized text is a worse security posture than an
// explicit failure, so any stage error aborts the whole call.
package anonymizer

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/raaihank/llm-shield/internal/config"
	"github.com/raaihank/llm-shield/internal/detect"
	"github.com/raaihank/llm-shield/internal/entity"
	"github.com/raaihank/llm-shield/internal/logger"
	"github.com/raaihank/llm-shield/internal/placeholder"
	"github.com/raaihank/llm-shield/internal/vault"
	"go.uber.org/zap"
)

// Result is the outcome of a successful anonymization.
type Result struct {
	// AnonymizedText is the input with every detected entity replaced by a
	// placeholder.
	AnonymizedText string
	// SessionID identifies the vault session holding the mappings; it is
	// the caller's only handle for later deanonymization.
	SessionID string
	// Entities are the matches that were replaced, ordered by start offset.
	Entities []entity.Match
}

// Anonymizer orchestrates detect -> generate -> store -> substitute and the
// inverse path. All state is constructor-injected; independent instances
// share nothing.
type Anonymizer struct {
	detector detect.Detector
	vault    vault.Storage
	logger   *logger.Logger

	allowed  map[entity.Kind]bool
	format   placeholder.Format
	vaultTTL time.Duration

	// tokenPattern matches the configured format's surface syntax during
	// deanonymization scans.
	tokenPattern *regexp.Regexp

	mu         sync.Mutex
	generators map[string]*placeholder.Generator
}

// New creates an Anonymizer from the given configuration and collaborators.
func New(cfg config.AnonymizerConfig, detector detect.Detector, store vault.Storage, log *logger.Logger) (*Anonymizer, error) {
	format := placeholder.Format(cfg.PlaceholderFormat)
	if !format.Valid() {
		return nil, fmt.Errorf("unknown placeholder format: %s", cfg.PlaceholderFormat)
	}

	allowed := make(map[entity.Kind]bool)
	for _, name := range cfg.EntityTypes {
		if name == "all" {
			for _, kind := range entity.AllKinds() {
				allowed[kind] = true
			}
			continue
		}
		kind := entity.Kind(name)
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown entity kind: %s", name)
		}
		allowed[kind] = true
	}

	return &Anonymizer{
		detector:     detector,
		vault:        store,
		logger:       log.WithComponent("anonymizer"),
		allowed:      allowed,
		format:       format,
		vaultTTL:     cfg.VaultTTL,
		tokenPattern: tokenPatternFor(format),
		generators:   make(map[string]*placeholder.Generator),
	}, nil
}

// tokenPatternFor builds the placeholder scanning pattern for a format.
func tokenPatternFor(format placeholder.Format) *regexp.Regexp {
	switch format {
	case placeholder.FormatUUID:
		return regexp.MustCompile(`\[[A-Z][A-Z0-9_]*_[0-9a-f]{32}\]`)
	case placeholder.FormatHashed:
		return regexp.MustCompile(`\[[A-Z][A-Z0-9_]*_[0-9a-f]{12}\]`)
	default:
		return regexp.MustCompile(`\[[A-Z][A-Z0-9_]*_\d+\]`)
	}
}

// Anonymize detects entities in text, replaces them with placeholders and
// stores the mappings in the vault. Passing an existing session ID continues
// that session (placeholder counters keep increasing); passing "" creates a
// new session with the configured TTL.
func (a *Anonymizer) Anonymize(text, existingSessionID string) (*Result, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	matches, err := a.detector.Detect(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetector, err)
	}

	// Kinds outside the configured set are ignored even if detected.
	filtered := matches[:0:0]
	for _, m := range matches {
		if a.allowed[m.Kind] {
			filtered = append(filtered, m)
		}
	}

	sessionID := existingSessionID
	if sessionID == "" {
		sessionID, err = a.vault.CreateSession(a.vaultTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVault, err)
		}
	}

	if len(filtered) == 0 {
		return &Result{AnonymizedText: text, SessionID: sessionID, Entities: []entity.Match{}}, nil
	}

	gen := a.generatorFor(sessionID)
	placeholders := gen.GenerateBatch(filtered)

	now := time.Now()
	var expiresAt *time.Time
	if a.vaultTTL != vault.NoExpiry {
		t := now.Add(a.vaultTTL)
		expiresAt = &t
	}

	spans := make([]span, len(filtered))
	for i, m := range filtered {
		mapping := entity.Mapping{
			Kind:          m.Kind,
			OriginalValue: m.Value,
			Placeholder:   placeholders[i],
			Confidence:    m.Confidence,
			CreatedAt:     now,
			ExpiresAt:     expiresAt,
		}
		if err := a.vault.PutMapping(sessionID, mapping); err != nil {
			if errors.Is(err, vault.ErrSessionNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrVault, err)
		}
		spans[i] = span{start: m.Start, end: m.End, replacement: placeholders[i]}
	}

	anonymized, err := substituteSpans(text, spans)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Text anonymized",
		zap.String("session_id", vault.RedactSessionID(sessionID)),
		zap.Int("entity_count", len(filtered)),
	)

	return &Result{
		AnonymizedText: anonymized,
		SessionID:      sessionID,
		Entities:       filtered,
	}, nil
}

// Deanonymize scans text for placeholder tokens of the configured format and
// restores the originals from the session's vault mappings. Any token that
// cannot be resolved — wrong session, expired mapping, or text that merely
// looks like a placeholder — fails the whole call; partially-restored text
// is never returned.
func (a *Anonymizer) Deanonymize(text, sessionID string) (string, error) {
	if text == "" {
		return "", ErrEmptyInput
	}

	tokens := a.scanPlaceholders(text)
	if len(tokens) == 0 {
		return text, nil
	}

	spans := make([]span, len(tokens))
	for i, tok := range tokens {
		mapping, err := a.vault.GetMapping(sessionID, tok.Text)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", tok.Text, err)
		}
		spans[i] = span{start: tok.Start, end: tok.End, replacement: mapping.OriginalValue}
	}

	restored, err := substituteSpans(text, spans)
	if err != nil {
		return "", err
	}

	a.logger.Info("Text deanonymized",
		zap.String("session_id", vault.RedactSessionID(sessionID)),
		zap.Int("placeholder_count", len(tokens)),
	)

	return restored, nil
}

// scanPlaceholders finds placeholder-shaped tokens in anonymized text.
func (a *Anonymizer) scanPlaceholders(text string) []entity.Placeholder {
	locs := a.tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]entity.Placeholder, 0, len(locs))
	for _, loc := range locs {
		tokens = append(tokens, entity.Placeholder{
			Text:  text[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
		})
	}
	return tokens
}

// generatorFor returns the session's placeholder generator, creating it on
// first use so counters continue monotonically across anonymize calls that
// share a session.
func (a *Anonymizer) generatorFor(sessionID string) *placeholder.Generator {
	a.mu.Lock()
	defer a.mu.Unlock()

	gen, ok := a.generators[sessionID]
	if !ok {
		gen = placeholder.NewGeneratorForSession(sessionID, a.format)
		a.generators[sessionID] = gen
	}
	return gen
}

// ForgetSession drops any generator state held for a session. Callers should
// pair this with vault.DeleteSession on explicit teardown.
func (a *Anonymizer) ForgetSession(sessionID string) {
	a.mu.Lock()
	delete(a.generators, sessionID)
	a.mu.Unlock()
}
