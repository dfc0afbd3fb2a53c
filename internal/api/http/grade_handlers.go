package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightpath-learning/brightpath-lms/internal/grading"
	"github.com/brightpath-learning/brightpath-lms/internal/quiz"
	"github.com/brightpath-learning/brightpath-lms/internal/rbac"
	syncx "github.com/brightpath-learning/brightpath-lms/internal/sync"
)

type gradeAnswer struct {
	QuestionID string              `json:"questionId"`
	Selected   grading.SelectedIDs `json:"selected,omitempty"`
	Input      interface{}         `json:"input,omitempty"`
}

type gradeRequest struct {
	QuizID      string        `json:"quizId"`
	UserID      string        `json:"userId"`
	Answers     []gradeAnswer `json:"answers"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	SubmittedAt *time.Time    `json:"submittedAt,omitempty"`
	// Optional idempotency key. Without it every call inserts a new result;
	// with it a replay returns the stored result (200, not 201).
	AttemptKey string `json:"attemptKey,omitempty"`
}

// POST /results/grade
func GradeHandler(store quiz.Store, engine *grading.Engine, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req gradeRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.QuizID) == "" || strings.TrimSpace(req.UserID) == "" || req.Answers == nil {
			writeError(w, http.StatusBadRequest, "quizId, userId and answers are required")
			return
		}
		for _, a := range req.Answers {
			if strings.TrimSpace(a.QuestionID) == "" {
				writeError(w, http.StatusBadRequest, "every answer needs a questionId")
				return
			}
		}

		ctx := r.Context()
		q, err := store.GetQuiz(ctx, req.QuizID)
		if errors.Is(err, quiz.ErrQuizNotFound) {
			writeError(w, http.StatusNotFound, "Quiz not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "storage error")
			return
		}

		if req.AttemptKey != "" {
			if existing, err := store.FindResultByAttemptKey(ctx, req.QuizID, req.UserID, req.AttemptKey); err == nil {
				writeItem(w, http.StatusOK, existing)
				return
			}
		}

		now := time.Now().UTC()
		sub := grading.Submission{
			QuizID:      req.QuizID,
			UserID:      req.UserID,
			Answers:     make([]grading.Answer, 0, len(req.Answers)),
			StartedAt:   now,
			SubmittedAt: now,
		}
		if req.StartedAt != nil {
			sub.StartedAt = req.StartedAt.UTC()
		}
		if req.SubmittedAt != nil {
			sub.SubmittedAt = req.SubmittedAt.UTC()
		}
		for _, a := range req.Answers {
			sub.Answers = append(sub.Answers, grading.Answer{
				QuestionID: a.QuestionID, Selected: a.Selected, Input: a.Input,
			})
		}

		graded := engine.Grade(q, sub)
		persisted, err := store.CreateResult(ctx, graded, req.AttemptKey)
		if errors.Is(err, quiz.ErrDuplicateAttempt) {
			// Raced with an identical submission; serve the winner's row.
			if existing, ferr := store.FindResultByAttemptKey(ctx, req.QuizID, req.UserID, req.AttemptKey); ferr == nil {
				writeItem(w, http.StatusOK, existing)
				return
			}
			writeError(w, http.StatusInternalServerError, "could not persist result")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not persist result")
			return
		}
		if events != nil {
			_ = events.Append(ctx, syncx.EventResultGraded, persisted.ID, persisted)
		}
		writeItem(w, http.StatusCreated, persisted)
	}
}

// GET /results/{resultID}
func GetResultHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "resultID")
		res, err := store.GetResult(r.Context(), id)
		if errors.Is(err, quiz.ErrResultNotFound) {
			writeError(w, http.StatusNotFound, "Result not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "storage error")
			return
		}
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())
		if role != "admin" && role != "teacher" && res.UserID != sub {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		writeItem(w, http.StatusOK, res)
	}
}

// GET /results?quiz_id=...&user_id=...&limit=50&offset=0
// Students only ever see their own results; user_id is forced to the subject.
func ListResultsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())

		quizID := strings.TrimSpace(r.URL.Query().Get("quiz_id"))
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

		if role != "admin" && role != "teacher" {
			userID = sub
		}

		list, err := store.ListResults(r.Context(), quiz.ResultListOpts{
			QuizID: quizID,
			UserID: userID,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "storage error")
			return
		}
		writeItems(w, http.StatusOK, list)
	}
}
