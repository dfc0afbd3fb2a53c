package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brightpath-learning/brightpath-lms/internal/grading"
	"github.com/brightpath-learning/brightpath-lms/internal/quiz"
	"github.com/brightpath-learning/brightpath-lms/internal/rbac"
)

func seedQuiz(t *testing.T, store quiz.Store) {
	t.Helper()
	p2 := 2.0
	err := store.PutQuiz(context.Background(), grading.Quiz{
		ID:    "quiz-1",
		Title: "Arithmetic",
		Questions: []grading.Question{
			{ID: "q1", Type: grading.TypeSingle, Options: []grading.Option{
				{ID: "a", Text: "3"}, {ID: "b", Text: "4", Correct: true},
			}},
			{ID: "q2", Type: grading.TypeNumeric, Points: &p2,
				Meta:    map[string]interface{}{"tolerance": 0.01},
				Options: []grading.Option{{ID: "pi", Text: "3.14", Correct: true}}},
		},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func postGrade(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/results/grade", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestGradeEndpointCreatesResult(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store)
	h := GradeHandler(store, grading.NewEngine(), nil)

	rec := postGrade(t, h, `{
		"quizId":"quiz-1","userId":"u1",
		"answers":[
			{"questionId":"q1","selected":["b"]},
			{"questionId":"q2","input":3.1399}
		]
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env["success"] != true {
		t.Fatalf("expected success envelope: %v", env)
	}
	item := env["item"].(map[string]interface{})
	if item["score"].(float64) != 3 || item["percentage"].(float64) != 100 {
		t.Fatalf("score/percentage: %v", item)
	}
	if item["correctCount"].(float64) != 2 || item["totalCount"].(float64) != 2 {
		t.Fatalf("counts: %v", item)
	}
	if len(item["breakdown"].([]interface{})) != 2 {
		t.Fatalf("breakdown: %v", item["breakdown"])
	}
	if item["id"] == "" {
		t.Fatalf("persisted id missing")
	}
}

func TestGradeEndpointValidation(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store)
	h := GradeHandler(store, grading.NewEngine(), nil)

	cases := []struct {
		name string
		body string
	}{
		{"missing quizId", `{"userId":"u1","answers":[]}`},
		{"missing userId", `{"quizId":"quiz-1","answers":[]}`},
		{"missing answers", `{"quizId":"quiz-1","userId":"u1"}`},
		{"answers not an array", `{"quizId":"quiz-1","userId":"u1","answers":"nope"}`},
		{"answer without questionId", `{"quizId":"quiz-1","userId":"u1","answers":[{"selected":["b"]}]}`},
		{"unknown field", `{"quizId":"quiz-1","userId":"u1","answers":[],"bogus":1}`},
		{"not json", `{{{`},
	}
	for _, c := range cases {
		rec := postGrade(t, h, c.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", c.name, rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env["success"] != false || env["message"] == "" {
			t.Fatalf("%s: expected error envelope, got %v", c.name, env)
		}
	}
}

func TestGradeEndpointQuizNotFound(t *testing.T) {
	h := GradeHandler(quiz.NewInMemoryStore(), grading.NewEngine(), nil)
	rec := postGrade(t, h, `{"quizId":"nope","userId":"u1","answers":[]}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env["message"] != "Quiz not found" {
		t.Fatalf("message: %v", env)
	}
}

func TestGradeEndpointAttemptKeyIdempotency(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store)
	h := GradeHandler(store, grading.NewEngine(), nil)
	body := `{"quizId":"quiz-1","userId":"u1","attemptKey":"try-1",
		"answers":[{"questionId":"q1","selected":["b"]}]}`

	first := postGrade(t, h, body)
	if first.Code != http.StatusCreated {
		t.Fatalf("first: expected 201, got %d", first.Code)
	}
	firstID := decodeEnvelope(t, first)["item"].(map[string]interface{})["id"]

	replay := postGrade(t, h, body)
	if replay.Code != http.StatusOK {
		t.Fatalf("replay: expected 200, got %d", replay.Code)
	}
	replayID := decodeEnvelope(t, replay)["item"].(map[string]interface{})["id"]
	if firstID != replayID {
		t.Fatalf("replay returned a different result: %v vs %v", firstID, replayID)
	}

	results, _ := store.ListResults(context.Background(), quiz.ResultListOpts{UserID: "u1"})
	if len(results) != 1 {
		t.Fatalf("replay must not insert, have %d results", len(results))
	}
}

func TestGradeEndpointWithoutKeyAlwaysInserts(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store)
	h := GradeHandler(store, grading.NewEngine(), nil)
	body := `{"quizId":"quiz-1","userId":"u1","answers":[{"questionId":"q1","selected":["b"]}]}`

	for i := 0; i < 2; i++ {
		if rec := postGrade(t, h, body); rec.Code != http.StatusCreated {
			t.Fatalf("call %d: expected 201, got %d", i, rec.Code)
		}
	}
	results, _ := store.ListResults(context.Background(), quiz.ResultListOpts{UserID: "u1"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestListResultsScopesStudents(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store)
	grade := GradeHandler(store, grading.NewEngine(), nil)
	for _, user := range []string{"u1", "u2"} {
		rec := postGrade(t, grade, `{"quizId":"quiz-1","userId":"`+user+`","answers":[]}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed result for %s: %d", user, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/results?user_id=u2", nil)
	ctx := rbac.WithRole(req.Context(), "student")
	ctx = rbac.WithSubject(ctx, "u1")
	rec := httptest.NewRecorder()
	ListResultsHandler(store).ServeHTTP(rec, req.WithContext(ctx))

	env := decodeEnvelope(t, rec)
	items := env["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected exactly the caller's result, got %d", len(items))
	}
	if items[0].(map[string]interface{})["userId"] != "u1" {
		t.Fatalf("student saw someone else's result: %v", items[0])
	}
}
