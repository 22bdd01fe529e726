package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamedash/internal/config"
	"gamedash/internal/database"
	"gamedash/internal/handlers"
	"gamedash/internal/logging"
	"gamedash/internal/report"
	"gamedash/internal/repository"
	"gamedash/internal/scheduler"
	"gamedash/internal/security"
	"gamedash/internal/service"
	"gamedash/internal/validation"
)

const (
	loginAttempts = 10
	loginWindow   = time.Minute
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connection established", "type", cfg.DatabaseType)

	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		return err
	}
	logger.Info("migrations completed")

	if cfg.JWTSecret == "change-me" {
		logger.Warn("JWT_SECRET is the default value; set it before exposing the server")
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	patternRepo := repository.NewErrorPatternRepository(db)

	// Services
	reports := report.NewService(recordRepo, userRepo, patternRepo, logger)
	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(userRepo, tokens, logger)
	adminService := service.NewAdminService(recordRepo, userRepo, validation.New(), logger)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, logger)
	if err != nil {
		return err
	}
	digestService := service.NewDigestService(reports, userRepo, emailService, cfg.AppBaseURL, logger)

	jobs := scheduler.New(digestService, time.Local, logger)
	if err := jobs.Start(cfg.DigestCron); err != nil {
		return err
	}
	defer jobs.Stop()

	loginLimiter := security.NewRateLimiter(loginAttempts, loginWindow)
	go loginLimiter.Run(ctx)

	router := handlers.NewRouter(handlers.Handlers{
		Auth:       handlers.NewAuthHandler(authService, logger),
		Reports:    handlers.NewReportHandler(reports, time.Now, logger),
		Admin:      handlers.NewAdminHandler(adminService, logger),
		Middleware: handlers.NewMiddleware(authService, loginLimiter, cfg.RequestTimeout, logger),
		Logger:     logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
