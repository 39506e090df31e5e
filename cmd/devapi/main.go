package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vedispeak/internal/config"
	"github.com/noah-isme/vedispeak/internal/database"
	"github.com/noah-isme/vedispeak/internal/handler"
	"github.com/noah-isme/vedispeak/internal/middleware"
	"github.com/noah-isme/vedispeak/internal/repository"
	"github.com/noah-isme/vedispeak/internal/router"
	"github.com/noah-isme/vedispeak/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(cfg.DatabaseURL, level <= zerolog.DebugLevel)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	store := repository.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		logger.Warn().Msg("redis url not set; dashboard cache and cross-instance realtime disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	dashboardService := service.NewDashboardService(store, redisClient, cfg.DashboardCacheTTL, logger)
	hub := service.NewRealtimeHub(redisClient, natsConn, cfg.RealtimeChannel, logger)
	hub.Start(ctx)
	activityService := service.NewActivityService(store, validate, hub, dashboardService, logger)
	progressService := service.NewProgressService(store, activityService, validate, hub, dashboardService, logger)
	sessionService := service.NewSessionService(store, activityService, validate, cfg.SessionMaxAge, logger)
	realtimeService := service.NewRealtimeService(hub, dashboardService, progressService, logger)

	go sessionService.RunSweeper(ctx, cfg.SweepInterval)

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: cfg.AppEnv == "production",
	})

	middleware.Register(app, middleware.Config{
		Logger:      &logger,
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   cfg.AppEnv == "development",
	})

	router.Register(app, cfg, router.Dependencies{
		ActivityHandler: handler.NewActivityHandler(activityService, sessionService, progressService, dashboardService, logger),
		ProgressHandler: handler.NewProgressHandler(progressService, logger),
		RealtimeHandler: handler.NewRealtimeHandler(realtimeService, logger),
		HealthProbes:    probes,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Str("node_id", hub.NodeID()).Msg("activity api listening")
	waitForShutdown(app)
	cancel()
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
