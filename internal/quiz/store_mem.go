package quiz

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-learning/brightpath-lms/internal/grading"
)

// memoryStore backs tests and single-process dev runs.
type memoryStore struct {
	mu        sync.RWMutex
	quizzes   map[string]grading.Quiz
	created   map[string]int64
	results   map[string]Result
	byAttempt map[string]string // quizID|userID|key -> result id
}

func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes:   map[string]grading.Quiz{},
		created:   map[string]int64{},
		results:   map[string]Result{},
		byAttempt: map[string]string{},
	}
}

func (m *memoryStore) PutQuiz(_ context.Context, q grading.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[q.ID]; !ok {
		m.created[q.ID] = time.Now().Unix()
	}
	m.quizzes[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (grading.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return grading.Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (m *memoryStore) GetQuizPublic(ctx context.Context, id string) (grading.Quiz, error) {
	q, err := m.GetQuiz(ctx, id)
	if err != nil {
		return grading.Quiz{}, err
	}
	return Sanitize(q), nil
}

func (m *memoryStore) ListQuizzes(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Summary{}
	for id, q := range m.quizzes {
		if opts.CourseID != "" && q.CourseID != opts.CourseID {
			continue
		}
		if opts.Q != "" && !strings.Contains(strings.ToLower(q.Title), strings.ToLower(opts.Q)) {
			continue
		}
		out = append(out, Summary{
			ID: id, CourseID: q.CourseID, Title: q.Title,
			QuestionCount: len(q.Questions), CreatedAt: m.created[id],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) DeleteQuiz(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[id]; !ok {
		return ErrQuizNotFound
	}
	delete(m.quizzes, id)
	delete(m.created, id)
	return nil
}

func attemptKeyIndex(quizID, userID, key string) string {
	return quizID + "|" + userID + "|" + key
}

func (m *memoryStore) CreateResult(_ context.Context, gr grading.GradedResult, attemptKey string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if attemptKey != "" {
		if _, exists := m.byAttempt[attemptKeyIndex(gr.QuizID, gr.UserID, attemptKey)]; exists {
			return Result{}, ErrDuplicateAttempt
		}
	}
	r := Result{ID: uuid.NewString(), AttemptKey: attemptKey, GradedResult: gr, CreatedAt: time.Now().UTC()}
	m.results[r.ID] = r
	if attemptKey != "" {
		m.byAttempt[attemptKeyIndex(gr.QuizID, gr.UserID, attemptKey)] = r.ID
	}
	return r, nil
}

func (m *memoryStore) GetResult(_ context.Context, id string) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return Result{}, ErrResultNotFound
	}
	return r, nil
}

func (m *memoryStore) FindResultByAttemptKey(_ context.Context, quizID, userID, key string) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if key != "" {
		if id, ok := m.byAttempt[attemptKeyIndex(quizID, userID, key)]; ok {
			return m.results[id], nil
		}
	}
	return Result{}, ErrResultNotFound
}

func (m *memoryStore) ListResults(_ context.Context, opts ResultListOpts) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Result{}
	for _, r := range m.results {
		if opts.QuizID != "" && r.QuizID != opts.QuizID {
			continue
		}
		if opts.UserID != "" && r.UserID != opts.UserID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func page[T any](in []T, limit, offset int) []T {
	limit, offset = clampPage(limit, offset)
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if len(in) > limit {
		in = in[:limit]
	}
	return in
}
