package grading

import "strings"

// shortText grades free-text answers against the text of the correct options,
// case-insensitively and ignoring surrounding whitespace.
type shortText struct{}

func (shortText) Score(q Question, a Answer) (float64, bool) {
	expected := make(map[string]struct{})
	for _, o := range q.Options {
		if o.Correct {
			expected[normalizeShort(o.Text)] = struct{}{}
		}
	}
	if len(expected) == 0 {
		return 0, false
	}
	got, ok := submittedValue(a)
	if !ok {
		return 0, false
	}
	if _, hit := expected[normalizeShort(got)]; hit {
		return q.MaxPoints(), true
	}
	return 0, false
}

func normalizeShort(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
