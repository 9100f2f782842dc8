package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"swiftattend/internal/attendance/attendance_api"
	"swiftattend/internal/attendance/db"
	"swiftattend/internal/attendance/service"
	"swiftattend/internal/config"
	"swiftattend/internal/database"
	"swiftattend/internal/database/migrations"
	"swiftattend/internal/kafka"
	"swiftattend/internal/logger"
	"swiftattend/internal/metrics"
	"swiftattend/internal/notify"
	"swiftattend/internal/token"
	"swiftattend/internal/token/tokencache"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

func openStore(ctx context.Context, cfg *config.Config, logger *logger.Logger) *bun.DB {
	logger.Info("DATABASE", fmt.Sprintf("Opening %s database", cfg.Database.Driver))
	bunDB, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open database: %v", err))
	}

	if cfg.Database.Driver == config.DriverPostgres {
		opts := migrations.DefaultOptions()
		opts.SeedData = cfg.Database.SeedData
		// The runner is not closed here: closing it also closes bunDB.
		runner := migrations.NewRunner(bunDB, opts, logger)
		if err := runner.RunMigrations(); err != nil {
			logger.Fatal("MIGRATE", fmt.Sprintf("Failed to run migrations: %v", err))
		}
	} else if err := db.New(bunDB).CreateSchema(ctx); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
	}

	logger.Info("DATABASE", "✅ Database ready")
	return bunDB
}

// buildRenderer puts the Redis cache in front of the SVG renderer when
// REDIS_ADDR is set. A Redis that cannot be reached is not fatal.
func buildRenderer(ctx context.Context, cfg *config.Config, logger *logger.Logger) (token.Renderer, func()) {
	svg := token.NewSVGRenderer(cfg.Token.ModuleSize)
	if cfg.Redis.Addr == "" {
		logger.Info("REDIS", "REDIS_ADDR not set, token cache disabled")
		return svg, func() {}
	}

	client, err := tokencache.Connect(ctx, cfg.Redis.Addr)
	if err != nil {
		logger.Warn("REDIS", fmt.Sprintf("Token cache disabled: %v", err))
		return svg, func() {}
	}

	logger.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, client.Options().DB))
	return tokencache.New(client, svg, cfg.Redis.TokenTTL, logger), func() { client.Close() }
}

func buildNotifier(cfg *config.Config, logger *logger.Logger) (notify.Notifier, func()) {
	email := notify.NewMockEmail(logger)
	if !cfg.Kafka.Enabled {
		logger.Info("KAFKA", "Kafka publishing disabled")
		return email, func() {}
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	logger.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %v", cfg.Kafka.Brokers))

	topics := []string{cfg.Kafka.Topics.Registrations, cfg.Kafka.Topics.CheckIns}
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		logger.Info("KAFKA", "Required topics ensured successfully")
	}

	async := notify.NewAsync(notify.NewKafka(producer, cfg.Kafka.Topics), logger)
	return notify.Multi{email, async}, func() {
		async.Wait()
		if err := producer.Close(); err != nil {
			logger.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting SwiftAttend")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := openStore(ctx, cfg, logger)
	defer bunDB.Close()
	store := db.New(bunDB)

	renderer, closeRenderer := buildRenderer(ctx, cfg, logger)
	defer closeRenderer()

	notifier, closeNotifier := buildNotifier(cfg, logger)
	defer closeNotifier()

	m := metrics.New()

	handler := attendance_api.NewHandler(
		service.NewEventService(store, renderer, cfg.Server.BaseURL, logger),
		service.NewRegistrationService(store, renderer, notifier, m, logger),
		service.NewCheckInService(store, notifier, m, logger),
		cfg.Token.PNGSize,
		logger,
	)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(attendance_api.RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := bunDB.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())

	handler.RegisterRoutes(r)
	logger.Info("ROUTER", "Attendance routes registered under /api, /event and /participant")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 SwiftAttend running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ SwiftAttend shutdown complete")
	}
}
