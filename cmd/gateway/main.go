package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/jeeyeonnnn/PJY-Quiz/internal/api/http"
	auth "github.com/jeeyeonnnn/PJY-Quiz/internal/auth/middleware"
	"github.com/jeeyeonnnn/PJY-Quiz/internal/config"
	"github.com/jeeyeonnnn/PJY-Quiz/internal/db"
	"github.com/jeeyeonnnn/PJY-Quiz/internal/grading"
	"github.com/jeeyeonnnn/PJY-Quiz/internal/quiz"
	"github.com/jeeyeonnnn/PJY-Quiz/internal/rbac"
	syncx "github.com/jeeyeonnnn/PJY-Quiz/internal/sync"
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

	store := quiz.NewSQLStore(dbh)
	events := syncx.NewEventRepo(dbh)
	svc := quiz.NewService(store, grading.NewSetGrader(), events, cfg.SiteID)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/sign-up", api.SignUpHandler(dbh))
	r.Post("/sign-in", api.SignInHandler(dbh, authSvc))

	// Protected API (JWT → identity in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("quiz:create")).
			Post("/quiz", api.CreateQuizHandler(svc))
		pr.With(rbac.Require("quiz:list")).
			Get("/quizzes", api.ListQuizzesHandler(svc))
		pr.With(rbac.Require("quiz:view")).
			Get("/quiz/{quizID}", api.QuizDetailHandler(svc))
		pr.With(rbac.Require("quiz:presave")).
			Post("/quiz/{quizID}/pre-save", api.PreSaveHandler(svc))
		pr.With(rbac.Require("quiz:submit")).
			Post("/quiz/{quizID}/submit", api.SubmitHandler(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
