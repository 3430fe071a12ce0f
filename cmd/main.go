package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vmp-edtech-backend/config"
	httpDelivery "vmp-edtech-backend/internal/delivery/http"
	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/internal/repository"
	"vmp-edtech-backend/internal/usecase"
	"vmp-edtech-backend/pkg/logger"
	"vmp-edtech-backend/pkg/notify"
	"vmp-edtech-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	appLog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer appLog.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to databases
	db, err := config.ConnectDB(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("database connection failed", "error", err)
	}
	defer db.Close(context.Background())

	// Auto migrate
	if err := config.AutoMigrate(db.PG); err != nil {
		appLog.Fatal("migration failed", "error", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.PG)
	companyRepo := repository.NewCompanyRepository(db.PG)
	courseRepo := repository.NewCourseRepository(db.PG)
	enrollmentRepo := repository.NewEnrollmentRepository(db.PG)
	progressRepo := repository.NewModuleProgressRepository(db.PG)
	examRepo := repository.NewExamRepository(db.PG)
	evidenceRepo := repository.NewEvidenceRepository(db.PG)
	credRepo := repository.NewCredentialRepository(db.PG)
	quoteRepo := repository.NewQuoteRepository(db.PG)
	resetRepo := repository.NewPasswordResetRepository(db.PG)
	moduleRepo := repository.NewModuleRepository(db.Mongo)
	photoStore, err := repository.NewPhotoStore(db.Mongo)
	if err != nil {
		appLog.Fatal("gridfs bucket", "error", err)
	}

	var notifier domain.Notifier
	if cfg.SendGridAPIKey != "" {
		notifier = notify.NewSendGrid(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailSales, appLog)
	} else {
		appLog.Warn("SENDGRID_API_KEY not set, emails are only logged")
		notifier = notify.NewLogNotifier(cfg.EmailSales, appLog)
	}
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiration)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(userRepo, companyRepo, resetRepo, tokens, notifier, appLog, cfg.FrontendURL)
	userUsecase := usecase.NewUserUsecase(userRepo, companyRepo, enrollmentRepo, authUsecase, appLog)
	companyUsecase := usecase.NewCompanyUsecase(companyRepo)
	courseUsecase := usecase.NewCourseUsecase(courseRepo, moduleRepo, enrollmentRepo, progressRepo, cfg.PassingScore)
	credUsecase := usecase.NewCredentialUsecase(credRepo, enrollmentRepo, userRepo, notifier, appLog, cfg.CredentialPrefix, cfg.FrontendURL)
	enrollmentUsecase := usecase.NewEnrollmentUsecase(courseRepo, moduleRepo, enrollmentRepo, progressRepo, examRepo, evidenceRepo, credUsecase, appLog)
	quizUsecase := usecase.NewQuizUsecase(moduleRepo, enrollmentRepo, progressRepo, examRepo, appLog)
	evidenceUsecase := usecase.NewEvidenceUsecase(moduleRepo, enrollmentRepo, progressRepo, evidenceRepo, photoStore, appLog)
	quoteUsecase := usecase.NewQuoteUsecase(quoteRepo, courseRepo, notifier, appLog)
	dashboardUsecase := usecase.NewDashboardUsecase(userRepo, companyRepo, courseRepo, enrollmentRepo, credRepo, quoteRepo, evidenceRepo)

	// Seed the first super admin
	if cfg.SeedAdminEmail != "" {
		if err := authUsecase.EnsureSuperAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			appLog.Error("failed to seed super admin", "error", err)
		}
	}

	handler := httpDelivery.NewHandler(
		authUsecase,
		userUsecase,
		companyUsecase,
		courseUsecase,
		enrollmentUsecase,
		quizUsecase,
		evidenceUsecase,
		credUsecase,
		quoteUsecase,
		dashboardUsecase,
		appLog,
	)
	router := httpDelivery.InitRouter(handler, tokens, httpDelivery.RouterConfig{
		CORSOrigins:     cfg.CORSOrigins,
		Redis:           db.Redis,
		PublicRateLimit: cfg.PublicRateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("server running", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("graceful shutdown failed", "error", err)
	}
}
