package detect

import (
	"regexp"

	"github.com/raaihank/llm-shield/internal/entity"
)

// Rule pairs a compiled pattern with its entity kind, base confidence and
// optional validator. Adding a new entity kind means adding one table entry
// plus, if applicable, a validator.
type Rule struct {
	Kind       entity.Kind
	Pattern    *regexp.Regexp
	Confidence float64
	// Validate filters structurally-matched-but-semantically-invalid
	// candidates. Receives the raw matched text; nil means no validation.
	Validate func(string) bool
}

// DefaultRules returns the built-in detection rule table. Well-structured,
// low-false-positive kinds carry high base confidence; heuristic kinds carry
// low confidence so overlap resolution prefers the more specific detection.
func DefaultRules() []Rule {
	return []Rule{
		{
			Kind:       entity.KindEmail,
			Pattern:    regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
			Confidence: 0.95,
		},
		{
			Kind:       entity.KindSSN,
			Pattern:    regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			Confidence: 0.95,
			Validate:   ValidateSSN,
		},
		{
			Kind:       entity.KindCreditCard,
			Pattern:    regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b|\b\d{15}\b`),
			Confidence: 0.95,
			Validate: func(s string) bool {
				return ValidateLuhn(stripSeparators(s))
			},
		},
		{
			Kind:       entity.KindPhone,
			Pattern:    regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
			Confidence: 0.90,
		},
		{
			Kind:       entity.KindIPAddress,
			Pattern:    regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			Confidence: 0.90,
			Validate:   ValidateIPv4,
		},
		{
			Kind:       entity.KindAWSAccessKey,
			Pattern:    regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
			Confidence: 0.90,
		},
		{
			Kind:       entity.KindAPIKey,
			Pattern:    regexp.MustCompile(`(?i)(?:api[_-]?key|token|secret|bearer)[\s"':=]+[A-Za-z0-9_\-.]{20,}`),
			Confidence: 0.85,
		},
		{
			Kind:       entity.KindURL,
			Pattern:    regexp.MustCompile(`https?://[^\s<>"]+|www\.[^\s<>"]+`),
			Confidence: 0.85,
		},
		{
			Kind:       entity.KindPostalCode,
			Pattern:    regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`),
			Confidence: 0.85,
		},
		{
			Kind:       entity.KindMedicalRecord,
			Pattern:    regexp.MustCompile(`\bMRN[-:]?\d{6,10}\b`),
			Confidence: 0.80,
		},
		{
			Kind:       entity.KindAccountNumber,
			Pattern:    regexp.MustCompile(`(?i)\b(?:acct|account)\s*(?:#|no\.?|number)?[:\s]\s*\d{6,12}\b`),
			Confidence: 0.80,
		},
		{
			Kind:       entity.KindDateOfBirth,
			Pattern:    regexp.MustCompile(`\b(?:\d{1,2}[-/]\d{1,2}[-/]\d{4}|\d{4}[-/]\d{1,2}[-/]\d{1,2})\b`),
			Confidence: 0.75,
		},
		{
			Kind:       entity.KindDate,
			Pattern:    regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}\b`),
			Confidence: 0.75,
		},
		{
			Kind:       entity.KindPassport,
			Pattern:    regexp.MustCompile(`\b[A-Z]{1,2}\d{7,8}\b`),
			Confidence: 0.75,
		},
		{
			Kind:       entity.KindDriverLicense,
			Pattern:    regexp.MustCompile(`\b[A-Z]\d{7}\b`),
			Confidence: 0.75,
		},
		{
			Kind:       entity.KindLicensePlate,
			Pattern:    regexp.MustCompile(`\b[A-Z]{2,3}[-\s]\d{3,4}\b`),
			Confidence: 0.70,
		},
		{
			Kind:       entity.KindBankAccount,
			Pattern:    regexp.MustCompile(`\b\d{8,17}\b`),
			Confidence: 0.70,
		},
		{
			Kind:       entity.KindAddress,
			Pattern:    regexp.MustCompile(`\b\d+\s+[A-Z][a-z]+\s+(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Lane|Ln|Boulevard|Blvd)\b`),
			Confidence: 0.65,
		},
		{
			Kind:       entity.KindOrganization,
			Pattern:    regexp.MustCompile(`\b[A-Z][A-Za-z\s]+?\s+(?:Inc|Corp|LLC|Ltd|Company|Co)\b`),
			Confidence: 0.65,
		},
		{
			Kind:       entity.KindPerson,
			Pattern:    regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`),
			Confidence: 0.60,
		},
		// KindLocation has no regex rule: bare location detection needs a
		// model-backed detector behind the same Detector interface.
	}
}
