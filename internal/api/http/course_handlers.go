package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightpath-learning/brightpath-lms/internal/course"
	"github.com/brightpath-learning/brightpath-lms/internal/rbac"
)

// POST /courses
func CreateCourseHandler(store *course.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		c, err := store.CreateCourse(r.Context(), course.Course{
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			OwnerID:     rbac.SubjectFromContext(r.Context()),
		})
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// GET /courses?q=...&owner_id=...
func ListCoursesHandler(store *course.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListCourses(r.Context(), course.ListOpts{
			Q:       strings.TrimSpace(r.URL.Query().Get("q")),
			OwnerID: strings.TrimSpace(r.URL.Query().Get("owner_id")),
			Limit:   parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:  parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /courses/{courseID}
func GetCourseHandler(store *course.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if errors.Is(err, course.ErrCourseNotFound) {
			http.Error(w, "course not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// DELETE /courses/{courseID}
func DeleteCourseHandler(store *course.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteCourse(r.Context(), chi.URLParam(r, "courseID"))
		if errors.Is(err, course.ErrCourseNotFound) {
			http.Error(w, "course not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /courses/{courseID}/lessons
func CreateLessonHandler(store *course.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title       string `json:"title"`
			ContentHTML string `json:"content_html,omitempty"`
			Position    int    `json:"position,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		l, err := store.CreateLesson(r.Context(), course.Lesson{
			CourseID:    chi.URLParam(r, "courseID"),
			Title:       strings.TrimSpace(req.Title),
			ContentHTML: req.ContentHTML,
			Position:    req.Position,
		})
		if errors.Is(err, course.ErrCourseNotFound) {
			http.Error(w, "course not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

// GET /courses/{courseID}/lessons
func ListLessonsHandler(store *course.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListLessons(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /lessons/{lessonID}
func GetLessonHandler(store *course.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := store.GetLesson(r.Context(), chi.URLParam(r, "lessonID"))
		if errors.Is(err, course.ErrLessonNotFound) {
			http.Error(w, "lesson not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

// DELETE /lessons/{lessonID}
func DeleteLessonHandler(store *course.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteLesson(r.Context(), chi.URLParam(r, "lessonID"))
		if errors.Is(err, course.ErrLessonNotFound) {
			http.Error(w, "lesson not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
