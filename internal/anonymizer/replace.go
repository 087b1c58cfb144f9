package anonymizer

import (
	"fmt"
	"sort"
	"strings"
)

// span is a byte range scheduled for substitution.
type span struct {
	start       int
	end         int
	replacement string
}

// substituteSpans replaces each span in text with its replacement,
// processing spans in descending start order so earlier replacements do not
// invalidate later offsets. Spans must lie within text bounds and must not
// overlap.
func substituteSpans(text string, spans []span) (string, error) {
	if len(spans) == 0 {
		return text, nil
	}

	for _, s := range spans {
		if s.start >= s.end {
			return "", fmt.Errorf("%w: %d..%d", ErrInvalidRange, s.start, s.end)
		}
		if s.end > len(text) {
			return "", fmt.Errorf("%w: end %d exceeds text length %d", ErrInvalidRange, s.end, len(text))
		}
	}

	ordered := make([]span, len(spans))
	copy(ordered, spans)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].start > ordered[j].start
	})

	var b strings.Builder
	result := text
	for _, s := range ordered {
		b.Reset()
		b.Grow(len(result) - (s.end - s.start) + len(s.replacement))
		b.WriteString(result[:s.start])
		b.WriteString(s.replacement)
		b.WriteString(result[s.end:])
		result = b.String()
	}

	return result, nil
}
