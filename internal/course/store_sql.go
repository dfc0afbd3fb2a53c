package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateCourse(ctx context.Context, c Course) (Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id,title,description,owner_id,created_at) VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.Title, c.Description, c.OwnerID, c.CreatedAt)
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,description,owner_id,created_at FROM courses WHERE id=$1`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.OwnerID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrCourseNotFound
		}
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) ListCourses(ctx context.Context, opts ListOpts) ([]Course, error) {
	where := []string{}
	args := []interface{}{}
	if opts.Q != "" {
		args = append(args, "%"+strings.ToLower(opts.Q)+"%")
		where = append(where, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)))
	}
	if opts.OwnerID != "" {
		args = append(args, opts.OwnerID)
		where = append(where, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	q := `SELECT id,title,description,owner_id,created_at FROM courses`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteCourse(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (s *SQLStore) CreateLesson(ctx context.Context, l Lesson) (Lesson, error) {
	if _, err := s.GetCourse(ctx, l.CourseID); err != nil {
		return Lesson{}, err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lessons (id,course_id,title,content_html,position,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		l.ID, l.CourseID, l.Title, l.ContentHTML, l.Position, l.CreatedAt)
	if err != nil {
		return Lesson{}, err
	}
	return l, nil
}

func (s *SQLStore) GetLesson(ctx context.Context, id string) (Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,course_id,title,content_html,position,created_at FROM lessons WHERE id=$1`, id)
	var l Lesson
	if err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.ContentHTML, &l.Position, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lesson{}, ErrLessonNotFound
		}
		return Lesson{}, err
	}
	return l, nil
}

func (s *SQLStore) ListLessons(ctx context.Context, courseID string) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,course_id,title,content_html,position,created_at FROM lessons
		 WHERE course_id=$1 ORDER BY position ASC, created_at ASC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Lesson{}
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.ContentHTML, &l.Position, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteLesson(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrLessonNotFound
	}
	return nil
}
