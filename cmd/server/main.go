package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/moderation"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/pipeline"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.LogLevel)

	if cfg.FirebaseProjectID == "" {
		slog.Error("FIREBASE_PROJECT_ID environment variable is required")
		os.Exit(1)
	}

	// MongoDB
	connectCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.StoreTimeout)
	store, err := database.Connect(connectCtx, cfg)
	if err != nil {
		cancel()
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.EnsureIndexes(connectCtx, store.DB, cfg); err != nil {
		cancel()
		slog.Error("index setup failed", "error", err)
		os.Exit(1)
	}
	cancel()

	// PostgreSQL log sink (ERROR+ async batch), optional
	var pgLogHandler *logging.PGHandler
	cleanupDone := make(chan struct{})
	if cfg.LogDatabaseDSN != "" {
		logDB, err := logging.OpenSink(cfg.LogDatabaseDSN)
		if err != nil {
			slog.Warn("log sink disabled", "error", err)
		} else {
			pgLogHandler = logging.NewPGHandler(logDB)
			slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))
			logging.StartCleanup(logDB, cfg.LogRetention, cleanupDone)
		}
	}

	// Identity provider
	keys := identity.NewKeySet(cfg.FirebaseJWKSURL, cfg.IdentityTimeout)
	verifier := identity.NewVerifier(cfg.FirebaseProjectID, keys, cfg.IdentityTimeout)
	revoker := newRevoker(cfg)

	// Services
	background := pipeline.NewBackground(cfg.IdentityTimeout, slog.Default())
	users := repository.NewCollection[models.User](store.DB, cfg.UsersCollection, cfg.StoreTimeout)
	posts := repository.NewCollection[models.Post](store.DB, cfg.PostsCollection, cfg.StoreTimeout)
	userService := services.NewUserService(users, revoker, background, cfg)
	postService := services.NewPostService(posts, moderation.NewScreener())

	// Handlers
	userHandler := handlers.NewUserHandler(userService)
	postHandler := handlers.NewPostHandler(postService)
	healthHandler := handlers.NewHealthHandler(store)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, verifier, userService, userHandler, postHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := background.Wait(ctx); err != nil {
		slog.Warn("pending side effects abandoned", "error", err)
	}

	close(cleanupDone)
	if pgLogHandler != nil {
		pgLogHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	if err := store.Disconnect(ctx); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func newRevoker(cfg *config.Config) identity.Revoker {
	if cfg.FirebaseCredentialsFile == "" {
		slog.Warn("FIREBASE_CREDENTIALS_FILE not set, identity revocation disabled")
		return identity.DisabledRevoker{}
	}
	creds, err := os.ReadFile(cfg.FirebaseCredentialsFile)
	if err != nil {
		slog.Error("failed to read identity credentials, revocation disabled", "path", cfg.FirebaseCredentialsFile, "error", err)
		return identity.DisabledRevoker{}
	}
	revoker, err := identity.NewToolkitRevoker(context.Background(), cfg.FirebaseProjectID, creds, cfg.IdentityTimeout)
	if err != nil {
		slog.Error("identity revocation disabled", "error", err)
		return identity.DisabledRevoker{}
	}
	return revoker
}
