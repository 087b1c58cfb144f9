// Package detect finds sensitive entities in text using a fixed table of
// regex rules, algorithmic validators and an overlap-resolution pass that
// reduces raw matches to a single non-overlapping, confidence-ranked set.
package detect

import (
	"fmt"
	"sort"

	"github.com/raaihank/llm-shield/internal/entity"
	"github.com/raaihank/llm-shield/internal/logger"
	"go.uber.org/zap"
)

// Detector detects entities in text. Implementations must be safe for
// concurrent callers. Regex-based and model-based implementations coexist
// behind this contract.
type Detector interface {
	Detect(text string) ([]entity.Match, error)
}

// RegexDetector runs the rule table over input text. Its state is immutable
// after construction, so a single instance serves concurrent callers.
type RegexDetector struct {
	rules   []Rule
	enabled map[entity.Kind]bool
	logger  *logger.Logger
}

// NewRegexDetector creates a detector with the default rule table, enabling
// the given kinds. The single name "all" enables every rule.
func NewRegexDetector(kinds []string, log *logger.Logger) (*RegexDetector, error) {
	d := &RegexDetector{
		rules:   DefaultRules(),
		enabled: make(map[entity.Kind]bool),
		logger:  log,
	}

	if err := d.configureKinds(kinds); err != nil {
		return nil, fmt.Errorf("failed to configure detector: %w", err)
	}

	log.Info("Entity detector initialized",
		zap.Int("total_rules", len(d.rules)),
		zap.Int("enabled_rules", d.countEnabled()),
	)

	return d, nil
}

// configureKinds enables rules based on configuration.
func (d *RegexDetector) configureKinds(kinds []string) error {
	for _, rule := range d.rules {
		d.enabled[rule.Kind] = false
	}

	for _, name := range kinds {
		if name == "all" {
			for _, rule := range d.rules {
				d.enabled[rule.Kind] = true
			}
			continue
		}

		kind := entity.Kind(name)
		if !kind.Valid() {
			return fmt.Errorf("unknown entity kind: %s", name)
		}
		d.enabled[kind] = true
	}

	return nil
}

// Detect runs every enabled rule against the input, filters candidates
// through their validators and resolves overlaps. The result is ordered by
// start offset and pairwise non-overlapping. Empty input yields an empty
// result, not an error.
func (d *RegexDetector) Detect(text string) ([]entity.Match, error) {
	if text == "" {
		return []entity.Match{}, nil
	}

	var all []entity.Match
	for _, rule := range d.rules {
		if !d.enabled[rule.Kind] {
			continue
		}

		locs := rule.Pattern.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			value := text[loc[0]:loc[1]]
			if rule.Validate != nil && !rule.Validate(value) {
				continue
			}
			all = append(all, entity.Match{
				Kind:       rule.Kind,
				Start:      loc[0],
				End:        loc[1],
				Value:      value,
				Confidence: rule.Confidence,
			})
		}
	}

	resolved := resolveOverlaps(all)

	if len(resolved) > 0 {
		d.logger.Debug("Entities detected",
			zap.Int("raw_matches", len(all)),
			zap.Int("resolved_matches", len(resolved)),
		)
	}

	return resolved, nil
}

// EnabledKinds returns the kinds this detector currently reports.
func (d *RegexDetector) EnabledKinds() []entity.Kind {
	var kinds []entity.Kind
	for kind, on := range d.enabled {
		if on {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func (d *RegexDetector) countEnabled() int {
	count := 0
	for _, on := range d.enabled {
		if on {
			count++
		}
	}
	return count
}

// resolveOverlaps reduces raw matches to a non-overlapping set. Matches are
// sorted by start offset, then a left-to-right sweep gathers each cluster of
// spans starting before the cluster's best end and keeps only the highest
// confidence span (ties go to the lowest start).
func resolveOverlaps(matches []entity.Match) []entity.Match {
	if len(matches) == 0 {
		return []entity.Match{}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})

	result := make([]entity.Match, 0, len(matches))
	i := 0
	for i < len(matches) {
		best := matches[i]

		j := i + 1
		for j < len(matches) && matches[j].Start < best.End {
			if matches[j].Confidence > best.Confidence {
				best = matches[j]
			}
			j++
		}

		result = append(result, best)
		i = j
	}

	return result
}
