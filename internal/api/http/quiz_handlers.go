package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brightpath-learning/brightpath-lms/internal/grading"
	"github.com/brightpath-learning/brightpath-lms/internal/quiz"
	"github.com/brightpath-learning/brightpath-lms/internal/rbac"
	syncx "github.com/brightpath-learning/brightpath-lms/internal/sync"
)

// POST /quizzes
func UploadQuizHandler(store quiz.Store, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q grading.Quiz
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(q.Title) == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		seen := map[string]struct{}{}
		for _, qq := range q.Questions {
			if qq.ID == "" || qq.Type == "" {
				http.Error(w, "every question needs id and type", http.StatusBadRequest)
				return
			}
			if _, dup := seen[qq.ID]; dup {
				http.Error(w, "duplicate question id: "+qq.ID, http.StatusBadRequest)
				return
			}
			seen[qq.ID] = struct{}{}
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if err := store.PutQuiz(r.Context(), q); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if events != nil {
			_ = events.Append(r.Context(), syncx.EventQuizCreated, q.ID,
				map[string]interface{}{"id": q.ID, "title": q.Title, "questions": len(q.Questions)})
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// GET /quizzes/{quizID}
// Students get the sanitized view; teachers and admins the full document.
func GetQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		role := rbac.RoleFromContext(r.Context())

		var (
			q   grading.Quiz
			err error
		)
		if role == "teacher" || role == "admin" {
			q, err = store.GetQuiz(r.Context(), id)
		} else {
			q, err = store.GetQuizPublic(r.Context(), id)
		}
		if errors.Is(err, quiz.ErrQuizNotFound) {
			http.Error(w, "quiz not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// GET /quizzes?q=...&course_id=...&limit=50&offset=0
func ListQuizzesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListQuizzes(r.Context(), quiz.ListOpts{
			Q:        strings.TrimSpace(r.URL.Query().Get("q")),
			CourseID: strings.TrimSpace(r.URL.Query().Get("course_id")),
			Limit:    parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:   parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// DELETE /quizzes/{quizID}
func DeleteQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		err := store.DeleteQuiz(r.Context(), id)
		if errors.Is(err, quiz.ErrQuizNotFound) {
			http.Error(w, "quiz not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
