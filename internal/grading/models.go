package grading

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Question types understood by the default engine.
const (
	TypeSingle    = "single"
	TypeMulti     = "multi"
	TypeTrueFalse = "truefalse"
	TypeShort     = "short"
	TypeNumeric   = "numeric"
)

// Option is one answer choice. For short/numeric questions Text carries the
// canonical expected value.
type Option struct {
	ID       string `json:"id,omitempty"`
	LegacyID string `json:"_id,omitempty"` // older authoring tools emit _id
	Text     string `json:"text,omitempty"`
	Correct  bool   `json:"correct,omitempty"`
}

// Key is the option's comparable identity: id, else _id, else text, else "".
// Every place that compares option identities must go through this, so that
// id-based and text-based quiz authoring both work.
func (o Option) Key() string {
	if o.ID != "" {
		return o.ID
	}
	if o.LegacyID != "" {
		return o.LegacyID
	}
	return o.Text
}

type Question struct {
	ID      string                 `json:"id"`
	Type    string                 `json:"type"`
	Prompt  string                 `json:"prompt,omitempty"`
	Options []Option               `json:"options,omitempty"`
	Points  *float64               `json:"points,omitempty"` // nil = 1
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// MaxPoints resolves the question's point value: 1 when absent, never negative.
func (q Question) MaxPoints() float64 {
	if q.Points == nil {
		return 1
	}
	if *q.Points < 0 {
		return 0
	}
	return *q.Points
}

type Quiz struct {
	ID        string     `json:"id"`
	CourseID  string     `json:"course_id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// SelectedIDs is a list of submitted option identities. Clients send strings
// or bare numbers; numbers keep their literal form ("2", "3.14") so they
// compare against text-keyed options.
type SelectedIDs []string

func (s *SelectedIDs) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(SelectedIDs, 0, len(raw))
	for _, m := range raw {
		var str string
		if err := json.Unmarshal(m, &str); err == nil {
			out = append(out, str)
			continue
		}
		var num json.Number
		if err := json.Unmarshal(m, &num); err == nil {
			out = append(out, num.String())
			continue
		}
		return fmt.Errorf("selected entries must be strings or numbers, got %s", string(m))
	}
	*s = out
	return nil
}

// Answer is one submitted response, matched to its question by ID, never by
// position.
type Answer struct {
	QuestionID string      `json:"questionId"`
	Selected   SelectedIDs `json:"selected,omitempty"`
	Input      interface{} `json:"input,omitempty"` // string | number | null
}

type Submission struct {
	QuizID      string    `json:"quizId"`
	UserID      string    `json:"userId"`
	Answers     []Answer  `json:"answers"`
	StartedAt   time.Time `json:"startedAt"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// BreakdownItem records the outcome for a single question.
type BreakdownItem struct {
	QuestionID string      `json:"questionId"`
	Correct    bool        `json:"correct"`
	Selected   SelectedIDs `json:"selected,omitempty"`
	Input      interface{} `json:"input,omitempty"`
	Awarded    float64     `json:"awarded"`
}

// GradedResult is the full grading outcome. Breakdown has one entry per quiz
// question, in quiz order. Percentage is computed from points, not from
// CorrectCount/TotalCount (they diverge under partial credit).
type GradedResult struct {
	QuizID       string          `json:"quizId"`
	UserID       string          `json:"userId"`
	Score        float64         `json:"score"`
	Percentage   float64         `json:"percentage"`
	CorrectCount int             `json:"correctCount"`
	TotalCount   int             `json:"totalCount"`
	StartedAt    time.Time       `json:"startedAt"`
	SubmittedAt  time.Time       `json:"submittedAt"`
	Breakdown    []BreakdownItem `json:"breakdown"`
}

// inputString coerces a free-form input value to a string. Returns false for
// null/absent and for shapes the wire contract does not allow.
func inputString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}

// submittedValue is the value a free-text question grades: input when present,
// else the first selected identity.
func submittedValue(a Answer) (string, bool) {
	if s, ok := inputString(a.Input); ok {
		return s, true
	}
	if len(a.Selected) > 0 {
		return a.Selected[0], true
	}
	return "", false
}

func metaString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

func metaFloat(meta map[string]interface{}, key string, def float64) float64 {
	if meta == nil {
		return def
	}
	switch t := meta[key].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case json.Number:
		if v, err := t.Float64(); err == nil {
			return v
		}
	case string:
		if v, err := strconv.ParseFloat(t, 64); err == nil {
			return v
		}
	}
	return def
}
