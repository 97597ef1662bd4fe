package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	api "github.com/openlingo/openlingo/internal/api/http"
	"github.com/openlingo/openlingo/internal/auth"
	"github.com/openlingo/openlingo/internal/config"
	"github.com/openlingo/openlingo/internal/content"
	"github.com/openlingo/openlingo/internal/db"
	"github.com/openlingo/openlingo/internal/grading"
	"github.com/openlingo/openlingo/internal/logger"
	"github.com/openlingo/openlingo/internal/progress"
	"github.com/openlingo/openlingo/internal/rbac"
	"github.com/openlingo/openlingo/internal/storage"
	syncx "github.com/openlingo/openlingo/internal/sync"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DB.Driver), cfg.DB.DSN)
	if err != nil {
		zl.Fatal("db open failed", zap.Error(err))
	}

	contentStore := content.NewSQLStore(dbh)
	progressStore := progress.NewSQLStore(dbh)
	events := syncx.NewEventRepo(dbh)
	svc := progress.NewService(contentStore, progressStore, grading.NewDefaultGrader(),
		progress.WithEventRepo(events))

	authSvc := auth.NewAuthService(cfg.Auth.HMACSecret, cfg.Auth.TokenTTL)
	sessions := auth.NewSessionStore(dbh)

	bs, err := storage.NewFSStore(cfg.AssetBasePath)
	if err != nil {
		zl.Fatal("blob store", zap.Error(err))
	}

	// periodic cleanup of expired sessions
	c := cron.New()
	_, err = c.AddFunc("@hourly", func() {
		n, err := sessions.SweepExpired(context.Background())
		if err != nil {
			zl.Warn("session sweep failed", zap.Error(err))
			return
		}
		if n > 0 {
			zl.Info("swept expired sessions", zap.Int64("count", n))
		}
	})
	if err != nil {
		zl.Fatal("cron", zap.Error(err))
	}
	c.Start()
	defer c.Stop()

	ah := &api.AuthHandlers{
		DB: dbh, Svc: authSvc, Sessions: sessions,
		OTPTTL: cfg.Auth.OTPTTL, ResetTTL: cfg.Auth.ResetTTL, Log: zl,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", ah.Register)
			ar.Post("/login", ah.Login)
			ar.Post("/verify-email", ah.VerifyEmail)
			ar.Post("/resend-otp", ah.ResendOTP)
			ar.Post("/forgot-password", ah.ForgotPassword)
			ar.Post("/reset-password", ah.ResetPassword)
			ar.Group(func(pr chi.Router) {
				pr.Use(auth.JWTMiddleware(authSvc, sessions))
				pr.Post("/logout", ah.Logout)
				pr.Post("/logout-all", ah.LogoutAll)
			})
		})

		// learner surface
		r.Group(func(pr chi.Router) {
			pr.Use(auth.JWTMiddleware(authSvc, sessions))

			pr.With(rbac.Require("topic:view")).
				Get("/grammar/topics", api.ListTopicsHandler(svc))
			pr.With(rbac.Require("topic:view")).
				Get("/grammar/topics/{topicID}", api.GetTopicHandler(svc))
			pr.With(rbac.Require("lesson:view")).
				Get("/grammar/lessons/{lessonID}", api.GetLessonHandler(svc))
			pr.With(rbac.Require("lesson:submit")).
				Post("/grammar/lessons/{lessonID}/submit", api.SubmitPracticeHandler(svc))
			pr.With(rbac.Require("lesson:submit")).
				Post("/grammar/lessons/{lessonID}/complete-theory", api.CompleteTheoryHandler(svc))

			pr.With(rbac.Require("lesson:view")).
				Get("/reading/lessons", api.ListReadingLessonsHandler(svc))
			pr.With(rbac.Require("lesson:view")).
				Get("/reading/lessons/{lessonID}", api.GetLessonHandler(svc))
			pr.With(rbac.Require("lesson:submit")).
				Post("/reading/lessons/{lessonID}/submit", api.SubmitPracticeHandler(svc))
			pr.With(rbac.Require("lesson:submit")).
				Post("/reading/lessons/{lessonID}/complete-theory", api.CompleteTheoryHandler(svc))

			pr.With(rbac.Require("user:change_password")).
				Post("/users/change-password", api.ChangePasswordHandler(dbh))
		})

		// admin surface
		r.Group(func(pr chi.Router) {
			pr.Use(auth.JWTMiddleware(authSvc, sessions))
			pr.Use(rbac.Require("admin:manage"))

			pr.Route("/admin/grammar", func(gr chi.Router) {
				gr.Get("/topics", api.ListTopicsAdminHandler(contentStore))
				gr.Post("/topics", api.CreateTopicHandler(contentStore))
				gr.Put("/topics/{topicID}", api.UpdateTopicHandler(contentStore))
				gr.Delete("/topics/{topicID}", api.DeleteTopicHandler(contentStore))

				gr.Get("/topics/{topicID}/lessons", api.ListLessonsAdminHandler(contentStore, content.KindGrammar))
				gr.Post("/topics/{topicID}/lessons", api.CreateLessonHandler(contentStore, content.KindGrammar))
				gr.Post("/topics/{topicID}/lessons/import", api.ImportLessonsHandler(contentStore, bs, content.KindGrammar))
				gr.Get("/lessons/{lessonID}", api.GetLessonAdminHandler(contentStore))
				gr.Put("/lessons/{lessonID}", api.UpdateLessonHandler(contentStore))
				gr.Delete("/lessons/{lessonID}", api.DeleteLessonHandler(contentStore))

				gr.Get("/lessons/{lessonID}/questions", api.ListQuestionsHandler(contentStore))
				gr.Post("/lessons/{lessonID}/questions", api.CreateQuestionHandler(contentStore))
				gr.Put("/questions/{questionID}", api.UpdateQuestionHandler(contentStore))
				gr.Delete("/questions/{questionID}", api.DeleteQuestionHandler(contentStore))
				gr.Post("/questions/bulk-delete", api.BulkDeleteQuestionsHandler(contentStore))
			})

			pr.Route("/admin/reading", func(rr chi.Router) {
				rr.Get("/lessons", api.ListLessonsAdminHandler(contentStore, content.KindReading))
				rr.Post("/lessons", api.CreateLessonHandler(contentStore, content.KindReading))
				rr.Post("/lessons/import", api.ImportLessonsHandler(contentStore, bs, content.KindReading))
				rr.Get("/lessons/{lessonID}", api.GetLessonAdminHandler(contentStore))
				rr.Put("/lessons/{lessonID}", api.UpdateLessonHandler(contentStore))
				rr.Delete("/lessons/{lessonID}", api.DeleteLessonHandler(contentStore))

				rr.Get("/lessons/{lessonID}/questions", api.ListQuestionsHandler(contentStore))
				rr.Post("/lessons/{lessonID}/questions", api.CreateQuestionHandler(contentStore))
				rr.Put("/questions/{questionID}", api.UpdateQuestionHandler(contentStore))
				rr.Delete("/questions/{questionID}", api.DeleteQuestionHandler(contentStore))
				rr.Post("/questions/bulk-delete", api.BulkDeleteQuestionsHandler(contentStore))
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/", api.ListUsersHandler(dbh))
				ur.Get("/{userID}", api.GetUserHandler(dbh))
				ur.Put("/{userID}", api.UpdateUserHandler(dbh))
				ur.Delete("/{userID}", api.DeleteUserHandler(dbh))
				ur.Post("/{userID}/block", api.SetUserBlockedHandler(dbh, true))
				ur.Post("/{userID}/unblock", api.SetUserBlockedHandler(dbh, false))
				ur.Post("/{userID}/points", api.AddUserPointsHandler(dbh))
				ur.Post("/{userID}/reset-streak", api.ResetUserStreakHandler(dbh))
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	zl.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", cfg.DB.Driver))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		zl.Fatal("server", zap.Error(err))
	}
}
