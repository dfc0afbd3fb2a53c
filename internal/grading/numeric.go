package grading

import (
	"math"
	"strconv"
	"strings"
)

// numericAnswer grades numeric responses with an absolute tolerance taken
// from meta.tolerance (default 0, exact match). The expected value is the
// text of the single correct option. Either side failing to parse as a
// finite number means "not correct", never an error.
type numericAnswer struct{}

func (numericAnswer) Score(q Question, a Answer) (float64, bool) {
	text, ok := expectedText(q.Options)
	if !ok {
		return 0, false
	}
	exp, ok := parseFloatLoose(text)
	if !ok {
		return 0, false
	}
	raw, ok := submittedValue(a)
	if !ok {
		return 0, false
	}
	got, ok := parseFloatLoose(raw)
	if !ok {
		return 0, false
	}
	tol := metaFloat(q.Meta, "tolerance", 0)
	if math.Abs(got-exp) <= tol {
		return q.MaxPoints(), true
	}
	return 0, false
}

func expectedText(opts []Option) (string, bool) {
	for _, o := range opts {
		if o.Correct {
			return o.Text, true
		}
	}
	return "", false
}

// parseFloatLoose parses a number out of a string, tolerating surrounding
// whitespace and trailing units ("3.14 rad"). Rejects NaN and infinities.
func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		sp := strings.Fields(s)
		if len(sp) == 0 {
			return 0, false
		}
		v, err = strconv.ParseFloat(sp[0], 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
