package quiz

import (
	"errors"
	"time"

	"github.com/brightpath-learning/brightpath-lms/internal/grading"
)

var (
	// ErrQuizNotFound is returned when the referenced quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrResultNotFound is returned when a result lookup misses.
	ErrResultNotFound = errors.New("result not found")
	// ErrDuplicateAttempt is returned when a result for the same
	// (quiz, user, attemptKey) triple already exists.
	ErrDuplicateAttempt = errors.New("duplicate attempt")
)

// Result is a persisted grading outcome. Results are insert-only: a
// resubmission creates a new row (or, with an attempt key, returns the
// existing one), it never updates an old one.
type Result struct {
	ID         string `json:"id"`
	AttemptKey string `json:"attemptKey,omitempty"`
	grading.GradedResult
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is a list-view projection of a quiz.
type Summary struct {
	ID            string `json:"id"`
	CourseID      string `json:"course_id,omitempty"`
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
	CreatedAt     int64  `json:"created_at"`
}

type ListOpts struct {
	Q        string // substring match on title
	CourseID string
	Limit    int
	Offset   int
}

type ResultListOpts struct {
	QuizID string
	UserID string
	Limit  int
	Offset int
}

// Sanitize returns a student-safe copy of the quiz: correct flags cleared,
// grading meta dropped, and the option list removed entirely for free-answer
// types (their option text is the answer key).
func Sanitize(q grading.Quiz) grading.Quiz {
	out := q
	out.Questions = make([]grading.Question, len(q.Questions))
	for i, qq := range q.Questions {
		c := qq
		c.Meta = nil
		switch qq.Type {
		case grading.TypeShort, grading.TypeNumeric:
			c.Options = nil
		default:
			opts := make([]grading.Option, len(qq.Options))
			for j, o := range qq.Options {
				o.Correct = false
				opts[j] = o
			}
			c.Options = opts
		}
		out.Questions[i] = c
	}
	return out
}
