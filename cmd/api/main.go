package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/freecs/freecs-api/internal/handler"
	"github.com/freecs/freecs-api/internal/middleware"
	"github.com/freecs/freecs-api/internal/repository"
	"github.com/freecs/freecs-api/internal/service"
	"github.com/freecs/freecs-api/pkg/cache"
	"github.com/freecs/freecs-api/pkg/config"
	"github.com/freecs/freecs-api/pkg/database"
	"github.com/freecs/freecs-api/pkg/jobs"
	"github.com/freecs/freecs-api/pkg/logger"
	"github.com/freecs/freecs-api/pkg/mail"
	corsmiddleware "github.com/freecs/freecs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/freecs/freecs-api/pkg/middleware/requestid"
	"github.com/freecs/freecs-api/pkg/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		sugar.Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	mailer := mail.NewMailer(cfg.Mail, logr)
	mailQueue := jobs.NewQueue("mail", func(_ context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(mail.Message)
		if !ok {
			return fmt.Errorf("unexpected payload for job %s", job.ID)
		}
		return mailer.Send(msg)
	}, jobs.QueueConfig{
		Workers: cfg.Mail.Workers,
		Logger:  logr,
	})
	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	userRepo := repository.NewUserRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	resetTokenRepo := repository.NewResetTokenRepository(redisClient)

	resetSigner := token.NewResetSigner(cfg.Reset.Secret, cfg.Reset.TokenTTL)

	authService := service.NewAuthService(userRepo, validate, logr, resetSigner, resetTokenRepo, mailQueue, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		ResetTokenTTL:      cfg.Reset.TokenTTL,
		ResetLinkBaseURL:   cfg.Reset.LinkBaseURL,
	})
	catalogService := service.NewCatalogService(categoryRepo, courseRepo, instructorRepo, validate, logr)
	instructorService := service.NewInstructorService(instructorRepo, validate, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, userRepo, courseRepo, validate, logr)
	preferenceService := service.NewPreferenceService(preferenceRepo, categoryRepo, validate, logr)
	exportService := service.NewExportService(courseRepo, logr)
	metricsService := service.NewMetricsService()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	router := &handler.Router{
		Auth:        handler.NewAuthHandler(authService),
		Instructor:  handler.NewInstructorHandler(instructorService),
		Category:    handler.NewCategoryHandler(catalogService),
		Course:      handler.NewCourseHandler(catalogService, exportService),
		Enrollment:  handler.NewEnrollmentHandler(enrollmentService),
		Preference:  handler.NewPreferenceHandler(preferenceService),
		Health:      handler.NewHealthHandler(db, redisClient),
		AuthService: authService,
		Metrics:     metricsService,
	}
	router.Register(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
	sugar.Infow("server stopped")
}
