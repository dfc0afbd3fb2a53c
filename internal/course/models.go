package course

import "errors"

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	OwnerID     string `json:"owner_id"`
	CreatedAt   int64  `json:"created_at"`
}

type Lesson struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	ContentHTML string `json:"content_html,omitempty"`
	Position    int    `json:"position"`
	CreatedAt   int64  `json:"created_at"`
}

type ListOpts struct {
	Q       string // substring match on title
	OwnerID string
	Limit   int
	Offset  int
}
