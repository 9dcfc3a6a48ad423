package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helpdetective/internal/catalog"
	"helpdetective/internal/config"
	"helpdetective/internal/database"
	"helpdetective/internal/handlers"
	"helpdetective/internal/logger"
	"helpdetective/internal/repository"
	"helpdetective/internal/security"
	"helpdetective/internal/service"
)

const (
	loginAttemptsPerWindow = 5
	loginWindow            = 15 * time.Minute
	cleanupInterval        = 10 * time.Minute
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}
	if cfg.WeakAuthSecret() {
		// CSRF tokens are keyed by AuthSecret even without the login gate
		secret, err := security.RandomSecret()
		if err != nil {
			log.Fatal("Failed to generate AUTH_SECRET", "error", err)
		}
		cfg.AuthSecret = secret
		log.Warn("AUTH_SECRET not set; using a random secret for this process")
	}

	// Initialize database with config (supports sqlite, postgres, pgx, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()

	log.Info("Database connection established", "type", cfg.DatabaseType)

	applied, err := db.RunMigrations()
	if err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}
	log.Info("Migrations completed successfully", "applied", applied)

	// Card catalog. A broken source at startup is fatal; later reload
	// failures keep serving the last good snapshot.
	overrides, err := catalog.LoadOverrides(cfg.OverridesPath)
	if err != nil {
		log.Fatal("Failed to load card overrides", "error", err)
	}
	cards, err := catalog.New(cfg.CardsPath, overrides)
	if err != nil {
		log.Fatal("Failed to load card catalog", "error", err)
	}
	if snap, err := cards.Current(); err == nil {
		log.Info("Card catalog loaded", "path", cards.Path(), "cards", snap.Len(), "overrides", len(overrides))
	}

	// Initialize repositories
	patientRepo := repository.NewPatientRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Initialize services
	authService := service.NewAuthService(cfg.ClinicPasswordHash, cfg.AuthSecret, cfg.SessionDuration)
	if !authService.Enabled() {
		log.Warn("CLINIC_PASSWORD_HASH not set; the API is open to anyone who can reach it")
	}
	patientService := service.NewPatientService(patientRepo)
	reportService := service.NewReportService(patientRepo, reportRepo)
	emailService, err := service.NewEmailService(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, log)
	if err != nil {
		log.Fatal("Failed to initialize email service", "error", err)
	}

	csrf := security.NewCSRFGenerator(cfg.AuthSecret)
	limiter := security.NewRateLimiter(loginAttemptsPerWindow, loginWindow)
	workflowLog := log.With("component", "workflow")
	registry := handlers.NewWorkflowRegistry(cfg.WorkflowIdleTimeout, func() *service.SessionWorkflow {
		return service.NewSessionWorkflow(patientRepo, sessionRepo, cards, workflowLog)
	})

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService, csrf, limiter, log)
	router := handlers.NewRouter(handlers.Handlers{
		Auth:     handlers.NewAuthHandler(authService, registry, limiter, log),
		Patients: handlers.NewPatientHandler(patientService, log),
		Cards:    handlers.NewCardHandler(cards, log),
		Workflow: handlers.NewWorkflowHandler(registry, csrf, log),
		Reports:  handlers.NewReportHandler(reportService, emailService, log),
	}, middleware, log)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background cleanup of idle workflows and login windows
	go cleanupLoop(ctx, registry, limiter, log)

	go func() {
		log.Info("Server starting", "addr", "http://localhost"+addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}

// cleanupLoop periodically drops idle workflows and expired rate limit windows
func cleanupLoop(ctx context.Context, registry *handlers.WorkflowRegistry, limiter *security.RateLimiter, log *logger.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Prune(); n > 0 {
				log.Info("Idle workflows discarded", "count", n, "live", registry.Len())
			}
			limiter.Cleanup()
		}
	}
}
