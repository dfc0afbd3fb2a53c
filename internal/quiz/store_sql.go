package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-learning/brightpath-lms/internal/grading"
)

// SQLStore works against both sqlite and postgres; both accept $N
// placeholders with the drivers in use.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutQuiz(ctx context.Context, q grading.Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (id,course_id,title,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET course_id=EXCLUDED.course_id, title=EXCLUDED.title, questions_json=EXCLUDED.questions_json`,
		q.ID, q.CourseID, q.Title, string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (grading.Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,course_id,title,questions_json FROM quizzes WHERE id=$1`, id)
	var q grading.Quiz
	var qjson string
	if err := row.Scan(&q.ID, &q.CourseID, &q.Title, &qjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return grading.Quiz{}, ErrQuizNotFound
		}
		return grading.Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return grading.Quiz{}, fmt.Errorf("quiz %s: bad questions payload: %w", id, err)
	}
	return q, nil
}

func (s *SQLStore) GetQuizPublic(ctx context.Context, id string) (grading.Quiz, error) {
	q, err := s.GetQuiz(ctx, id)
	if err != nil {
		return grading.Quiz{}, err
	}
	return Sanitize(q), nil
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts ListOpts) ([]Summary, error) {
	where := []string{}
	args := []interface{}{}
	if opts.Q != "" {
		args = append(args, "%"+strings.ToLower(opts.Q)+"%")
		where = append(where, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)))
	}
	if opts.CourseID != "" {
		args = append(args, opts.CourseID)
		where = append(where, fmt.Sprintf("course_id=$%d", len(args)))
	}
	q := `SELECT id,course_id,title,questions_json,created_at FROM quizzes`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit, offset := clampPage(opts.Limit, opts.Offset)
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var qjson string
		if err := rows.Scan(&sm.ID, &sm.CourseID, &sm.Title, &qjson, &sm.CreatedAt); err != nil {
			return nil, err
		}
		var questions []grading.Question
		if json.Unmarshal([]byte(qjson), &questions) == nil {
			sm.QuestionCount = len(questions)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrQuizNotFound
	}
	return nil
}

func (s *SQLStore) CreateResult(ctx context.Context, gr grading.GradedResult, attemptKey string) (Result, error) {
	bj, err := json.Marshal(gr.Breakdown)
	if err != nil {
		return Result{}, err
	}
	r := Result{ID: uuid.NewString(), AttemptKey: attemptKey, GradedResult: gr, CreatedAt: time.Now().UTC()}
	_, err = s.db.ExecContext(ctx, `INSERT INTO results
		(id,quiz_id,user_id,attempt_key,score,percentage,correct_count,total_count,breakdown_json,started_at,submitted_at,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		r.ID, gr.QuizID, gr.UserID, attemptKey, gr.Score, gr.Percentage, gr.CorrectCount, gr.TotalCount,
		string(bj), gr.StartedAt.UnixMilli(), gr.SubmittedAt.UnixMilli(), r.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return Result{}, ErrDuplicateAttempt
		}
		return Result{}, err
	}
	return r, nil
}

func (s *SQLStore) GetResult(ctx context.Context, id string) (Result, error) {
	row := s.db.QueryRowContext(ctx, resultSelect+` WHERE id=$1`, id)
	return scanResult(row)
}

func (s *SQLStore) FindResultByAttemptKey(ctx context.Context, quizID, userID, key string) (Result, error) {
	if key == "" {
		return Result{}, ErrResultNotFound
	}
	row := s.db.QueryRowContext(ctx, resultSelect+` WHERE quiz_id=$1 AND user_id=$2 AND attempt_key=$3`, quizID, userID, key)
	return scanResult(row)
}

func (s *SQLStore) ListResults(ctx context.Context, opts ResultListOpts) ([]Result, error) {
	where := []string{}
	args := []interface{}{}
	if opts.QuizID != "" {
		args = append(args, opts.QuizID)
		where = append(where, fmt.Sprintf("quiz_id=$%d", len(args)))
	}
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		where = append(where, fmt.Sprintf("user_id=$%d", len(args)))
	}
	q := resultSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit, offset := clampPage(opts.Limit, opts.Offset)
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const resultSelect = `SELECT id,quiz_id,user_id,attempt_key,score,percentage,correct_count,total_count,breakdown_json,started_at,submitted_at,created_at FROM results`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner) (Result, error) {
	var r Result
	var bjson string
	var startedAt, submittedAt, createdAt int64
	err := row.Scan(&r.ID, &r.QuizID, &r.UserID, &r.AttemptKey, &r.Score, &r.Percentage,
		&r.CorrectCount, &r.TotalCount, &bjson, &startedAt, &submittedAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, ErrResultNotFound
		}
		return Result{}, err
	}
	if err := json.Unmarshal([]byte(bjson), &r.Breakdown); err != nil {
		return Result{}, fmt.Errorf("result %s: bad breakdown payload: %w", r.ID, err)
	}
	r.StartedAt = time.UnixMilli(startedAt).UTC()
	r.SubmittedAt = time.UnixMilli(submittedAt).UTC()
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return r, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value violates unique constraint") // postgres
}
