package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/concesionario/backoffice-api/docs"
	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/config"
	"github.com/concesionario/backoffice-api/internal/database"
	"github.com/concesionario/backoffice-api/internal/http/handler"
	"github.com/concesionario/backoffice-api/internal/http/middleware"
	"github.com/concesionario/backoffice-api/internal/http/router"
	"github.com/concesionario/backoffice-api/internal/logger"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/service"
	"github.com/concesionario/backoffice-api/internal/storage"
	"go.uber.org/zap"
)

// @title Concesionario Backoffice API
// @version 1.0
// @description Back-office API for client, lead and calendar management of a car dealership

// @contact.name Soporte

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

//go:generate swag init -g cmd/api/main.go -o docs -d ../../

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Secrets come from Key Vault in staging/production when enabled
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	archiveStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Repositories
	repos := service.UserRepositories{
		Users:   repository.NewUserRepository(db),
		Themes:  repository.NewThemeRepository(db),
		Clients: repository.NewClientRepository(db),
		Leads:   repository.NewLeadRepository(db),
		Events:  repository.NewEventRepository(db),
		Notes:   repository.NewNoteRepository(db),
		Audit:   repository.NewAuditLogRepository(db),
	}

	// Services
	tokens := auth.NewTokenIssuer(&cfg.Auth)
	auditService := service.NewAuditLogService(repos.Audit, archiveStorage, cfg.Audit, log)
	userService := service.NewUserService(db, repos, auditService, cfg.Auth.BcryptCost, log)
	authService := service.NewAuthService(userService, repos.Users, tokens, auditService, cfg.Auth.AllowRegistration, log)
	clientService := service.NewClientService(db, repos.Clients, repos.Users, repos.Notes, auditService, log)
	eventService := service.NewEventService(repos.Events, repos.Clients, repos.Leads, log)
	leadService := service.NewLeadService(db, repos.Leads, repos.Events, repos.Notes, eventService, log)
	themeService := service.NewThemeService(repos.Themes)

	// Middleware
	authMiddleware := auth.NewMiddleware(tokens, repos.Users, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, authMiddleware, rateLimiter, router.Handlers{
		Auth:    handler.NewAuthHandler(authService, log),
		User:    handler.NewUserHandler(userService, log),
		Profile: handler.NewProfileHandler(userService, themeService, log),
		Client:  handler.NewClientHandler(clientService, log),
		Event:   handler.NewEventHandler(eventService, log),
		Lead:    handler.NewLeadHandler(leadService, log),
		Audit:   handler.NewAuditHandler(auditService, log),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("Error closing database connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
