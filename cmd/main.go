package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"socialpay/internal/auth"
	"socialpay/internal/bootstrap"
	"socialpay/internal/checkout"
	"socialpay/internal/clock"
	"socialpay/internal/config"
	cronpkg "socialpay/internal/cron"
	"socialpay/internal/handler/api"
	"socialpay/internal/handler/ws"
	"socialpay/internal/middleware"
	"socialpay/internal/models"
	"socialpay/internal/notify"
	"socialpay/internal/orchestrator"
	"socialpay/internal/payment"
	"socialpay/internal/repository"
	"socialpay/internal/router"
)

func main() {
	// --- Logger ---
	env := os.Getenv("APP_ENV")
	logger, err := newLogger(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if hasArg("--bootstrap-db") {
		if err := runDBBootstrap(logger); err != nil {
			logger.Fatal("Database bootstrap failed", zap.Error(err))
		}
		logger.Info("Database bootstrap completed")
		return
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if development(cfg.Server.Env) != development(env) {
		// .env may set APP_ENV after the first logger was built.
		if l, err := newLogger(cfg.Server.Env); err == nil {
			_ = logger.Sync()
			logger = l
		}
	}

	// --- Redis (optional, in-memory fallback) ---
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = config.NewRedis(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory fallback", zap.Error(err))
		}
	}

	// --- Attempt history (optional) ---
	var recorder orchestrator.Recorder
	var attemptHandler *api.AttemptHandler
	if cfg.Database.Enabled() {
		db, err := config.NewDatabase(&cfg.Database, cfg.Server.Env == "development")
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := bootstrap.Migrate(db); err != nil {
			logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
		}
		attempts := repository.NewAttemptRepository(db)
		recorder = attempts
		attemptHandler = api.NewAttemptHandler(attempts, logger)
		logger.Info("Database connection established")
	}

	// --- Merchant notifications (optional) ---
	var notifier orchestrator.Notifier
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Warn("Telegram notifications disabled", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	// --- Payment backend ---
	backend := payment.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)
	catalog := payment.NewCatalog(backend, payment.NewCatalogCache(rdb), cfg.Checkout.CatalogTTL, logger)
	registry := orchestrator.NewRegistry()

	sessionCfg := orchestrator.DefaultConfig()
	sessionCfg.PollInterval = cfg.Checkout.PollInterval
	sessionCfg.CountdownSeconds = cfg.Checkout.CountdownSeconds
	sessionCfg.FullRedirectMediums = cfg.Checkout.FullRedirectMediums
	sessionCfg.InHouseMedium = models.MediumSocialPay

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	router.Setup(e, router.Handlers{
		Gateways: api.NewGatewayHandler(catalog, logger),
		Sessions: api.NewSessionHandler(api.SessionDeps{
			Registry: registry,
			Catalog:  catalog,
			BackendFor: func(creds auth.Credentials) payment.Backend {
				return backend.WithCredentials(creds.Token, creds.Locale)
			},
			PhoneRule:  checkout.PhoneRule{CountryCode: cfg.Checkout.CountryCode},
			Config:     sessionCfg,
			Clock:      clock.Real{},
			Recorder:   recorder,
			Notifier:   notifier,
			ReceiptURL: cfg.Checkout.ReceiptURL,
			Logger:     logger,
		}),
		Stream:   ws.NewStreamHandler(registry, cfg.Checkout.ReceiptURL, logger),
		Attempts: attemptHandler,
	}, logger, cfg.API.Key, middleware.NewSubmitDeduper(rdb, 10*time.Minute))

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(registry, catalog, cfg.Checkout.SessionTTL, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting SocialPay checkout server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop timers of sessions still open
	registry.Sweep(time.Now(), 0)

	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("Server exited")
}

func hasArg(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}

func runDBBootstrap(logger *zap.Logger) error {
	dbCfg, err := config.LoadDatabaseOnly()
	if err != nil {
		return err
	}
	db, err := config.NewDatabase(dbCfg, false)
	if err != nil {
		return err
	}
	if err := bootstrap.Migrate(db); err != nil {
		return err
	}
	logger.Info("Schema migration completed")
	return nil
}

func development(env string) bool {
	return env == "development"
}

func newLogger(env string) (*zap.Logger, error) {
	if development(env) {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
