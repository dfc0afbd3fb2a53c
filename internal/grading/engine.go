package grading

// Scorer grades one question against one submitted answer. Implementations
// must be pure and must tolerate malformed question content: a broken
// question scores zero, it never fails the submission.
type Scorer interface {
	Score(q Question, a Answer) (awarded float64, correct bool)
}

// Engine routes by question type to the matching Scorer and aggregates the
// per-question outcomes into a GradedResult. It is a synchronous pure
// computation: safe for concurrent use, never mutates its inputs.
type Engine struct {
	scorers map[string]Scorer
}

type EngineOption func(*Engine)

// WithScorer adds or replaces the scorer for a question type.
func WithScorer(typ string, s Scorer) EngineOption {
	return func(e *Engine) { e.scorers[typ] = s }
}

// NewEngine installs the built-in scorers.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		scorers: map[string]Scorer{
			TypeSingle:    singleChoice{},
			TypeTrueFalse: singleChoice{},
			TypeMulti:     multiChoice{},
			TypeShort:     shortText{},
			TypeNumeric:   numericAnswer{},
		},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Grade scores every question of the quiz, in quiz order. Answers are matched
// by question ID; a question with no matching answer is scored as empty
// (incorrect, zero awarded). Unknown question types score zero.
func (e *Engine) Grade(quiz Quiz, sub Submission) GradedResult {
	byID := make(map[string]Answer, len(sub.Answers))
	for _, a := range sub.Answers {
		if _, dup := byID[a.QuestionID]; dup {
			continue // first entry wins
		}
		byID[a.QuestionID] = a
	}

	res := GradedResult{
		QuizID:      quiz.ID,
		UserID:      sub.UserID,
		TotalCount:  len(quiz.Questions),
		StartedAt:   sub.StartedAt,
		SubmittedAt: sub.SubmittedAt,
		Breakdown:   make([]BreakdownItem, 0, len(quiz.Questions)),
	}

	var maxPoints float64
	for _, q := range quiz.Questions {
		pts := q.MaxPoints()
		maxPoints += pts

		a := byID[q.ID]
		var awarded float64
		var correct bool
		if s, ok := e.scorers[q.Type]; ok {
			awarded, correct = s.Score(q, a)
		}
		if awarded < 0 {
			awarded = 0
		}
		if awarded > pts {
			awarded = pts
		}
		if correct {
			res.CorrectCount++
		}
		res.Score += awarded
		res.Breakdown = append(res.Breakdown, BreakdownItem{
			QuestionID: q.ID,
			Correct:    correct,
			Selected:   a.Selected,
			Input:      a.Input,
			Awarded:    awarded,
		})
	}
	if maxPoints > 0 {
		res.Percentage = res.Score / maxPoints * 100
	}
	return res
}

// --- built-in scorers ---

type singleChoice struct{}

func (singleChoice) Score(q Question, a Answer) (float64, bool) {
	exp, ok := expectedKey(q.Options)
	if !ok || len(a.Selected) != 1 || a.Selected[0] != exp {
		return 0, false
	}
	return q.MaxPoints(), true
}

type multiChoice struct{}

func (multiChoice) Score(q Question, a Answer) (float64, bool) {
	cor := make(map[string]struct{})
	for _, o := range q.Options {
		if o.Correct {
			cor[o.Key()] = struct{}{}
		}
	}
	sel := make(map[string]struct{}, len(a.Selected))
	for _, k := range a.Selected {
		sel[k] = struct{}{}
	}

	tp, fp := 0, 0
	for k := range sel {
		if _, ok := cor[k]; ok {
			tp++
		} else {
			fp++
		}
	}
	// The correctness flag ignores partial-credit mode.
	exact := tp == len(cor) && fp == 0

	pts := q.MaxPoints()
	if metaString(q.Meta, "partial") == "ratio" && len(cor) > 0 {
		frac := (float64(tp) - float64(fp)) / float64(len(cor))
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		return pts * frac, exact
	}
	if exact {
		return pts, true
	}
	return 0, false
}

// expectedKey returns the key of the first correct option. A question with no
// correct option is malformed and can never be answered correctly.
func expectedKey(opts []Option) (string, bool) {
	for _, o := range opts {
		if o.Correct {
			return o.Key(), true
		}
	}
	return "", false
}
