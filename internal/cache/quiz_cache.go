package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/brightpath-learning/brightpath-lms/internal/grading"
	"github.com/brightpath-learning/brightpath-lms/internal/quiz"
)

// Store is a read-through Redis cache in front of a quiz.Store. Only full
// quiz reads are cached (that is the per-grading hot path); writes
// invalidate, everything else delegates. Redis being down degrades to the
// inner store, never to an error.
type Store struct {
	inner  quiz.Store
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
}

func NewStore(inner quiz.Store, client *redis.Client, ttl time.Duration) *Store {
	return &Store{inner: inner, client: client, ttl: ttl}
}

func quizKey(id string) string { return "quiz:" + id }

func (s *Store) GetQuiz(ctx context.Context, id string) (grading.Quiz, error) {
	if q, ok := s.cached(ctx, id); ok {
		return q, nil
	}
	v, err, _ := s.sf.Do(id, func() (interface{}, error) {
		// Re-check in case another request filled the cache.
		if q, ok := s.cached(ctx, id); ok {
			return q, nil
		}
		q, err := s.inner.GetQuiz(ctx, id)
		if err != nil {
			return grading.Quiz{}, err
		}
		if buf, err := json.Marshal(q); err == nil {
			s.client.Set(ctx, quizKey(id), buf, s.ttl)
		}
		return q, nil
	})
	if err != nil {
		return grading.Quiz{}, err
	}
	return v.(grading.Quiz), nil
}

func (s *Store) cached(ctx context.Context, id string) (grading.Quiz, bool) {
	buf, err := s.client.Get(ctx, quizKey(id)).Bytes()
	if err != nil {
		return grading.Quiz{}, false
	}
	var q grading.Quiz
	if json.Unmarshal(buf, &q) != nil {
		return grading.Quiz{}, false
	}
	return q, true
}

func (s *Store) GetQuizPublic(ctx context.Context, id string) (grading.Quiz, error) {
	q, err := s.GetQuiz(ctx, id)
	if err != nil {
		return grading.Quiz{}, err
	}
	return quiz.Sanitize(q), nil
}

func (s *Store) PutQuiz(ctx context.Context, q grading.Quiz) error {
	if err := s.inner.PutQuiz(ctx, q); err != nil {
		return err
	}
	s.client.Del(ctx, quizKey(q.ID))
	return nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	if err := s.inner.DeleteQuiz(ctx, id); err != nil {
		return err
	}
	s.client.Del(ctx, quizKey(id))
	return nil
}

func (s *Store) ListQuizzes(ctx context.Context, opts quiz.ListOpts) ([]quiz.Summary, error) {
	return s.inner.ListQuizzes(ctx, opts)
}

func (s *Store) CreateResult(ctx context.Context, res grading.GradedResult, attemptKey string) (quiz.Result, error) {
	return s.inner.CreateResult(ctx, res, attemptKey)
}

func (s *Store) GetResult(ctx context.Context, id string) (quiz.Result, error) {
	return s.inner.GetResult(ctx, id)
}

func (s *Store) FindResultByAttemptKey(ctx context.Context, quizID, userID, key string) (quiz.Result, error) {
	return s.inner.FindResultByAttemptKey(ctx, quizID, userID, key)
}

func (s *Store) ListResults(ctx context.Context, opts quiz.ResultListOpts) ([]quiz.Result, error) {
	return s.inner.ListResults(ctx, opts)
}
