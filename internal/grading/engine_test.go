package grading

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func pts(v float64) *float64 { return &v }

func TestSingleChoiceCorrect(t *testing.T) {
	q := Question{ID: "q1", Type: TypeSingle, Points: pts(1), Options: []Option{
		{ID: "a", Text: "3"},
		{ID: "b", Text: "4", Correct: true},
	}}
	e := NewEngine()
	res := e.Grade(Quiz{ID: "quiz", Questions: []Question{q}},
		Submission{Answers: []Answer{{QuestionID: "q1", Selected: SelectedIDs{"b"}}}})

	if !res.Breakdown[0].Correct || res.Breakdown[0].Awarded != 1 {
		t.Fatalf("expected correct/1, got %+v", res.Breakdown[0])
	}
	if res.Score != 1 || res.Percentage != 100 {
		t.Fatalf("expected score 1 / 100%%, got %v / %v", res.Score, res.Percentage)
	}
}

func TestSingleChoiceRejectsMultipleSelections(t *testing.T) {
	q := Question{ID: "q1", Type: TypeSingle, Options: []Option{
		{ID: "a", Correct: true}, {ID: "b"},
	}}
	res := NewEngine().Grade(Quiz{Questions: []Question{q}},
		Submission{Answers: []Answer{{QuestionID: "q1", Selected: SelectedIDs{"a", "b"}}}})
	if res.Breakdown[0].Correct || res.Breakdown[0].Awarded != 0 {
		t.Fatalf("two selections must not score, got %+v", res.Breakdown[0])
	}
}

func TestTrueFalse(t *testing.T) {
	q := Question{ID: "q1", Type: TypeTrueFalse, Points: pts(2), Options: []Option{
		{ID: "true", Correct: true}, {ID: "false"},
	}}
	res := NewEngine().Grade(Quiz{Questions: []Question{q}},
		Submission{Answers: []Answer{{QuestionID: "q1", Selected: SelectedIDs{"true"}}}})
	if !res.Breakdown[0].Correct || res.Breakdown[0].Awarded != 2 {
		t.Fatalf("got %+v", res.Breakdown[0])
	}
}

func TestMultiRatioPartialCredit(t *testing.T) {
	q := Question{ID: "q1", Type: TypeMulti, Points: pts(2),
		Meta: map[string]interface{}{"partial": "ratio"},
		Options: []Option{
			{ID: "a", Correct: true},
			{ID: "b"},
			{ID: "e", Correct: true},
		}}
	quiz := Quiz{Questions: []Question{q}}
	e := NewEngine()

	// One of two correct options selected: half credit, not flagged correct.
	res := e.Grade(quiz, Submission{Answers: []Answer{{QuestionID: "q1", Selected: SelectedIDs{"a"}}}})
	if res.Breakdown[0].Awarded != 1.0 {
		t.Fatalf("expected awarded 1.0, got %v", res.Breakdown[0].Awarded)
	}
	if res.Breakdown[0].Correct {
		t.Fatalf("partial hit must not be flagged correct")
	}
	if res.CorrectCount != 0 {
		t.Fatalf("correctCount must come from the flag, got %d", res.CorrectCount)
	}

	// A wrong selection cancels a right one.
	res = e.Grade(quiz, Submission{Answers: []Answer{{QuestionID: "q1", Selected: SelectedIDs{"a", "b"}}}})
	if res.Breakdown[0].Awarded != 0 || res.Breakdown[0].Correct {
		t.Fatalf("expected 0/incorrect, got %+v", res.Breakdown[0])
	}

	// Exact match: full credit and the flag.
	res = e.Grade(quiz, Submission{Answers: []Answer{{QuestionID: "q1", Selected: SelectedIDs{"e", "a"}}}})
	if !res.Breakdown[0].Correct || res.Breakdown[0].Awarded != 2 {
		t.Fatalf("expected 2/correct, got %+v", res.Breakdown[0])
	}
}

func TestMultiAllOrNothingWithoutPartial(t *testing.T) {
	q := Question{ID: "q1", Type: TypeMulti, Points: pts(3), Options: []Option{
		{ID: "a", Correct: true}, {ID: "b", Correct: true}, {ID: "c"},
	}}
	e := NewEngine()
	quiz := Quiz{Questions: []Question{q}}

	res := e.Grade(quiz, Submission{Answers: []Answer{{QuestionID: "q1", Selected: SelectedIDs{"a"}}}})
	if res.Breakdown[0].Awarded != 0 {
		t.Fatalf("no partial mode: expected 0, got %v", res.Breakdown[0].Awarded)
	}
	res = e.Grade(quiz, Submission{Answers: []Answer{{QuestionID: "q1", Selected: SelectedIDs{"b", "a"}}}})
	if !res.Breakdown[0].Correct || res.Breakdown[0].Awarded != 3 {
		t.Fatalf("expected full credit, got %+v", res.Breakdown[0])
	}
}

func TestNumericTolerance(t *testing.T) {
	q := Question{ID: "q1", Type: TypeNumeric, Points: pts(2),
		Meta:    map[string]interface{}{"tolerance": 0.01},
		Options: []Option{{ID: "pi", Text: "3.14", Correct: true}}}
	e := NewEngine()
	quiz := Quiz{Questions: []Question{q}}

	res := e.Grade(quiz, Submission{Answers: []Answer{{QuestionID: "q1", Input: 3.1399}}})
	if !res.Breakdown[0].Correct || res.Breakdown[0].Awarded != 2 {
		t.Fatalf("within tolerance: got %+v", res.Breakdown[0])
	}

	res = e.Grade(quiz, Submission{Answers: []Answer{{QuestionID: "q1", Input: "3.2"}}})
	if res.Breakdown[0].Correct {
		t.Fatalf("outside tolerance must not score")
	}

	// Non-numeric input degrades to incorrect, never an error.
	res = e.Grade(quiz, Submission{Answers: []Answer{{QuestionID: "q1", Input: "about three"}}})
	if res.Breakdown[0].Correct || res.Breakdown[0].Awarded != 0 {
		t.Fatalf("unparseable input: got %+v", res.Breakdown[0])
	}
}

func TestNumericFallsBackToSelected(t *testing.T) {
	q := Question{ID: "q1", Type: TypeNumeric, Options: []Option{
		{ID: "exp", Text: "42", Correct: true},
	}}
	res := NewEngine().Grade(Quiz{Questions: []Question{q}},
		Submission{Answers: []Answer{{QuestionID: "q1", Selected: SelectedIDs{"42"}}}})
	if !res.Breakdown[0].Correct {
		t.Fatalf("selected value should grade when input is absent")
	}
}

func TestShortTextNormalization(t *testing.T) {
	q := Question{ID: "q1", Type: TypeShort, Points: pts(1), Options: []Option{
		{ID: "ok", Text: "graphite", Correct: true},
	}}
	res := NewEngine().Grade(Quiz{Questions: []Question{q}},
		Submission{Answers: []Answer{{QuestionID: "q1", Input: "  Graphite "}}})
	if !res.Breakdown[0].Correct || res.Breakdown[0].Awarded != 1 {
		t.Fatalf("case/whitespace insensitive match failed: %+v", res.Breakdown[0])
	}

	res = NewEngine().Grade(Quiz{Questions: []Question{q}},
		Submission{Answers: []Answer{{QuestionID: "q1", Input: "diamond"}}})
	if res.Breakdown[0].Correct {
		t.Fatalf("wrong answer scored")
	}
}

func TestOptionKeyPriority(t *testing.T) {
	cases := []struct {
		opt  Option
		want string
	}{
		{Option{ID: "a", LegacyID: "x", Text: "t"}, "a"},
		{Option{LegacyID: "x", Text: "t"}, "x"},
		{Option{Text: "t"}, "t"},
		{Option{}, ""},
	}
	for _, c := range cases {
		if got := c.opt.Key(); got != c.want {
			t.Fatalf("Key(%+v) = %q, want %q", c.opt, got, c.want)
		}
	}

	// Text-keyed authoring grades the same as id-keyed.
	q := Question{ID: "q1", Type: TypeSingle, Options: []Option{
		{Text: "red", Correct: true}, {Text: "blue"},
	}}
	res := NewEngine().Grade(Quiz{Questions: []Question{q}},
		Submission{Answers: []Answer{{QuestionID: "q1", Selected: SelectedIDs{"red"}}}})
	if !res.Breakdown[0].Correct {
		t.Fatalf("text fallback identity did not match")
	}
}

func TestMissingAnswerAndUnknownType(t *testing.T) {
	quiz := Quiz{Questions: []Question{
		{ID: "q1", Type: TypeSingle, Options: []Option{{ID: "a", Correct: true}}},
		{ID: "q2", Type: "essay", Points: pts(5)},
	}}
	res := NewEngine().Grade(quiz, Submission{Answers: []Answer{
		{QuestionID: "q2", Input: "long text"},
	}})
	if len(res.Breakdown) != 2 {
		t.Fatalf("breakdown must cover every question, got %d", len(res.Breakdown))
	}
	if res.Breakdown[0].Correct || res.Breakdown[0].Awarded != 0 {
		t.Fatalf("missing answer must score zero: %+v", res.Breakdown[0])
	}
	if res.Breakdown[1].Correct || res.Breakdown[1].Awarded != 0 {
		t.Fatalf("unknown type must score zero: %+v", res.Breakdown[1])
	}
	// q1 worth 1, q2 worth 5: nothing awarded.
	if res.Score != 0 || res.Percentage != 0 {
		t.Fatalf("got score %v pct %v", res.Score, res.Percentage)
	}
}

func TestEmptyQuiz(t *testing.T) {
	res := NewEngine().Grade(Quiz{ID: "empty"}, Submission{UserID: "u1"})
	if res.TotalCount != 0 || res.Percentage != 0 || res.Score != 0 {
		t.Fatalf("zero-question quiz: %+v", res)
	}
	if len(res.Breakdown) != 0 {
		t.Fatalf("expected empty breakdown, got %d items", len(res.Breakdown))
	}
}

func TestPercentageFromPointsNotCounts(t *testing.T) {
	quiz := Quiz{Questions: []Question{
		{ID: "q1", Type: TypeSingle, Points: pts(9), Options: []Option{{ID: "a", Correct: true}}},
		{ID: "q2", Type: TypeSingle, Points: pts(1), Options: []Option{{ID: "a", Correct: true}}},
	}}
	res := NewEngine().Grade(quiz, Submission{Answers: []Answer{
		{QuestionID: "q1", Selected: SelectedIDs{"a"}},
	}})
	if res.CorrectCount != 1 || res.TotalCount != 2 {
		t.Fatalf("counts: %d/%d", res.CorrectCount, res.TotalCount)
	}
	if res.Percentage != 90 {
		t.Fatalf("expected 90 (points-weighted), got %v", res.Percentage)
	}
}

func TestAwardedNeverExceedsPoints(t *testing.T) {
	quizzes := []Quiz{
		{Questions: []Question{{ID: "q", Type: TypeMulti, Points: pts(2),
			Meta:    map[string]interface{}{"partial": "ratio"},
			Options: []Option{{ID: "a", Correct: true}}}}},
		{Questions: []Question{{ID: "q", Type: TypeNumeric,
			Options: []Option{{Text: "1", Correct: true}}}}},
	}
	subs := []Submission{
		{Answers: []Answer{{QuestionID: "q", Selected: SelectedIDs{"a", "a"}}}},
		{Answers: []Answer{{QuestionID: "q", Input: "1"}}},
		{},
	}
	e := NewEngine()
	for _, quiz := range quizzes {
		for _, sub := range subs {
			res := e.Grade(quiz, sub)
			for i, item := range res.Breakdown {
				max := quiz.Questions[i].MaxPoints()
				if item.Awarded < 0 || item.Awarded > max {
					t.Fatalf("awarded %v outside [0,%v]", item.Awarded, max)
				}
			}
		}
	}
}

func TestGradeIsDeterministic(t *testing.T) {
	quiz := Quiz{ID: "quiz", Questions: []Question{
		{ID: "q1", Type: TypeMulti, Points: pts(2),
			Meta:    map[string]interface{}{"partial": "ratio"},
			Options: []Option{{ID: "a", Correct: true}, {ID: "b"}, {ID: "c", Correct: true}}},
		{ID: "q2", Type: TypeNumeric, Meta: map[string]interface{}{"tolerance": 0.5},
			Options: []Option{{Text: "10", Correct: true}}},
	}}
	sub := Submission{UserID: "u1", Answers: []Answer{
		{QuestionID: "q1", Selected: SelectedIDs{"a", "b"}},
		{QuestionID: "q2", Input: 10.3},
	}}
	e := NewEngine()
	first := e.Grade(quiz, sub)
	second := e.Grade(quiz, sub)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("grading is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestGradeDoesNotMutateInputs(t *testing.T) {
	quiz := Quiz{ID: "quiz", Questions: []Question{
		{ID: "q1", Type: TypeSingle, Options: []Option{{ID: "a", Correct: true}}},
	}}
	sub := Submission{Answers: []Answer{{QuestionID: "q1", Selected: SelectedIDs{"a"}}}}
	before, _ := json.Marshal(quiz)
	beforeSub, _ := json.Marshal(sub)
	NewEngine().Grade(quiz, sub)
	after, _ := json.Marshal(quiz)
	afterSub, _ := json.Marshal(sub)
	if string(before) != string(after) || string(beforeSub) != string(afterSub) {
		t.Fatalf("inputs were mutated")
	}
}

func TestWithScorerOverride(t *testing.T) {
	e := NewEngine(WithScorer("essay", fixedScorer{award: 1, ok: true}))
	quiz := Quiz{Questions: []Question{{ID: "q1", Type: "essay", Points: pts(4)}}}
	res := e.Grade(quiz, Submission{Answers: []Answer{{QuestionID: "q1"}}})
	if !res.Breakdown[0].Correct || res.Breakdown[0].Awarded != 1 {
		t.Fatalf("custom scorer not applied: %+v", res.Breakdown[0])
	}
}

type fixedScorer struct {
	award float64
	ok    bool
}

func (f fixedScorer) Score(Question, Answer) (float64, bool) { return f.award, f.ok }

func TestSelectedIDsDecodeCoercesNumbers(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`{"questionId":"q1","selected":["b",2,3.14]}`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := SelectedIDs{"b", "2", "3.14"}
	if !reflect.DeepEqual(a.Selected, want) {
		t.Fatalf("got %v, want %v", a.Selected, want)
	}
	if err := json.Unmarshal([]byte(`{"selected":[true]}`), &a); err == nil {
		t.Fatalf("booleans must be rejected")
	}
}

func TestParseFloatLoose(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"3.14", 3.14, true},
		{"  42 ", 42, true},
		{"3.14 rad", 3.14, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"+Inf", 0, false},
	}
	for _, c := range cases {
		got, ok := parseFloatLoose(c.in)
		if ok != c.ok || (ok && math.Abs(got-c.want) > 1e-12) {
			t.Fatalf("parseFloatLoose(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}
