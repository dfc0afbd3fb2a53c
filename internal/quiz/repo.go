package quiz

import (
	"context"

	"github.com/brightpath-learning/brightpath-lms/internal/grading"
)

// Store persists quizzes (read for grading, read/write for authoring) and
// graded results (insert-only).
type Store interface {
	PutQuiz(ctx context.Context, q grading.Quiz) error
	// GetQuiz returns the full quiz, answer data included. Grading needs this;
	// never serve it to students.
	GetQuiz(ctx context.Context, id string) (grading.Quiz, error)
	// GetQuizPublic returns the student-safe view (see Sanitize).
	GetQuizPublic(ctx context.Context, id string) (grading.Quiz, error)
	ListQuizzes(ctx context.Context, opts ListOpts) ([]Summary, error)
	DeleteQuiz(ctx context.Context, id string) error

	// CreateResult assigns a storage id and creation time. With a non-empty
	// attemptKey it fails with ErrDuplicateAttempt when a result for the same
	// (quiz, user, key) already exists.
	CreateResult(ctx context.Context, res grading.GradedResult, attemptKey string) (Result, error)
	GetResult(ctx context.Context, id string) (Result, error)
	FindResultByAttemptKey(ctx context.Context, quizID, userID, key string) (Result, error)
	ListResults(ctx context.Context, opts ResultListOpts) ([]Result, error)
}
