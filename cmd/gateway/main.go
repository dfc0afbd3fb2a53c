package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	api "github.com/brightpath-learning/brightpath-lms/internal/api/http"
	auth "github.com/brightpath-learning/brightpath-lms/internal/auth/middleware"
	"github.com/brightpath-learning/brightpath-lms/internal/cache"
	"github.com/brightpath-learning/brightpath-lms/internal/config"
	"github.com/brightpath-learning/brightpath-lms/internal/course"
	"github.com/brightpath-learning/brightpath-lms/internal/db"
	"github.com/brightpath-learning/brightpath-lms/internal/grading"
	"github.com/brightpath-learning/brightpath-lms/internal/quiz"
	"github.com/brightpath-learning/brightpath-lms/internal/rbac"
	syncx "github.com/brightpath-learning/brightpath-lms/internal/sync"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	var quizzes quiz.Store = quiz.NewSQLStore(dbh)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		quizzes = cache.NewStore(quizzes, rdb, cfg.QuizCacheTTL)
		log.Printf("quiz cache enabled (redis=%s, ttl=%s)", cfg.RedisAddr, cfg.QuizCacheTTL)
	}
	courses := course.NewSQLStore(dbh)
	events := syncx.NewEventRepo(dbh, cfg.SiteID)
	engine := grading.NewEngine()

	// --- Auth (local HMAC JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(dbh, authSvc))

	// Protected API (JWT -> role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, true))

		// Quizzes
		pr.With(rbac.Require("quiz:create")).
			Post("/quizzes", api.UploadQuizHandler(quizzes, events))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes", api.ListQuizzesHandler(quizzes))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}", api.GetQuizHandler(quizzes))
		pr.With(rbac.Require("quiz:delete")).
			Delete("/quizzes/{quizID}", api.DeleteQuizHandler(quizzes))

		// Grading
		pr.With(rbac.Require("result:submit")).
			Post("/results/grade", api.GradeHandler(quizzes, engine, events))
		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/results", api.ListResultsHandler(quizzes))
		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/results/{resultID}", api.GetResultHandler(quizzes))

		// Courses and lessons
		pr.With(rbac.Require("course:create")).
			Post("/courses", api.CreateCourseHandler(courses))
		pr.With(rbac.Require("course:view")).
			Get("/courses", api.ListCoursesHandler(courses))
		pr.With(rbac.Require("course:view")).
			Get("/courses/{courseID}", api.GetCourseHandler(courses))
		pr.With(rbac.Require("course:delete")).
			Delete("/courses/{courseID}", api.DeleteCourseHandler(courses))

		pr.With(rbac.Require("lesson:create")).
			Post("/courses/{courseID}/lessons", api.CreateLessonHandler(courses))
		pr.With(rbac.Require("lesson:view")).
			Get("/courses/{courseID}/lessons", api.ListLessonsHandler(courses))
		pr.With(rbac.Require("lesson:view")).
			Get("/courses/{courseID}/lessons/{lessonID}", api.GetLessonHandler(courses))
		pr.With(rbac.Require("lesson:delete")).
			Delete("/courses/{courseID}/lessons/{lessonID}", api.DeleteLessonHandler(courses))

		// Users (teacher/admin)
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
