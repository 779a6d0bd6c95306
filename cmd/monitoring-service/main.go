package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whmcs-stock-monitor/internal/events"
	"whmcs-stock-monitor/internal/monitor/config"
	delivery "whmcs-stock-monitor/internal/monitor/delivery/http"
	"whmcs-stock-monitor/internal/monitor/engine"
	"whmcs-stock-monitor/internal/monitor/repository"
	"whmcs-stock-monitor/internal/monitor/scheduler"
	"whmcs-stock-monitor/internal/monitor/service"
	"whmcs-stock-monitor/internal/notifier"
	"whmcs-stock-monitor/internal/whmcs"
	"whmcs-stock-monitor/pkg/common"
	"whmcs-stock-monitor/pkg/logger"
	"whmcs-stock-monitor/pkg/postgres"
	"whmcs-stock-monitor/pkg/redis"
	"whmcs-stock-monitor/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the stock monitoring service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Stock Monitoring Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize repositories
	websiteRepo := repository.NewWebsiteRepository(db.DB)
	monitorRepo := repository.NewMonitorConfigRepository(db.DB)
	stockRepo := repository.NewStockRecordRepository(db.DB)
	historyRepo := repository.NewMonitorHistoryRepository(db.DB)
	storage := repository.NewStorage(monitorRepo, stockRepo, historyRepo)

	// Initialize the WHMCS client factory
	clientFactory := whmcs.NewFactory(whmcs.FactoryConfig{
		Timeout:    time.Duration(cfg.Whmcs.TimeoutSeconds) * time.Second,
		CacheTTL:   time.Duration(cfg.Whmcs.CacheTTLSeconds) * time.Second,
		MaxRetries: cfg.Whmcs.MaxRetries,
		RateLimit:  cfg.Whmcs.RateLimitPerSecond,
	}, appLogger)

	// Initialize the event bus and its consumers
	bus := events.NewBus(appLogger)
	notifier.NewAuditLogger(appLogger).Register(bus)

	if cfg.Telegram.Enabled {
		tgClient, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram client", logger.ErrorField(err))
		}
		notifier.NewTelegramNotifier(tgClient, appLogger).Register(bus)
		appLogger.Info("Telegram notifications enabled")
	}

	if cfg.Stream.Enabled {
		redisCfg := redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}
		redisClient, err := redis.NewClient(redisCfg)
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		defer redisClient.Close()

		streamName := cfg.Stream.Name
		if streamName == "" {
			streamName = common.RedisStreamStockEvents
		}
		notifier.NewStreamSink(redisClient, streamName, cfg.Redis.StreamMaxLen, appLogger).Register(bus)
		appLogger.Info("Event stream sink enabled", logger.StringField("stream", streamName))
	}

	// Initialize the monitoring engine and scheduler
	monitorEngine := engine.New(storage, clientFactory, bus, appLogger, engine.Config{
		Concurrency: cfg.Monitor.Concurrency,
	})

	interval, err := time.ParseDuration(cfg.Monitor.Interval)
	if err != nil {
		appLogger.Fatal("Invalid monitor interval", logger.ErrorField(err))
	}
	sched, err := scheduler.New(monitorEngine, scheduler.Config{
		Interval:       interval,
		CronExpression: cfg.Monitor.CronExpression,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize scheduler", logger.ErrorField(err))
	}
	if err := sched.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start scheduler", logger.ErrorField(err))
	}

	// Initialize services
	websiteSvc := service.NewWebsiteService(websiteRepo, clientFactory, appLogger)
	monitorSvc := service.NewMonitorService(monitorRepo, websiteRepo, stockRepo, historyRepo, appLogger)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	websiteHandler := delivery.NewWebsiteHandler(websiteSvc, appLogger)
	websiteHandler.RegisterRoutes(apiV1.Group("/websites"))

	monitorHandler := delivery.NewMonitorHandler(monitorSvc, appLogger)
	monitorHandler.RegisterRoutes(apiV1.Group("/monitors"))

	schedulerHandler := delivery.NewSchedulerHandler(sched, appLogger)
	schedulerHandler.RegisterRoutes(apiV1.Group("/scheduler"))

	e.GET("/health", func(c echo.Context) error {
		sqlDB, err := db.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request().Context())
		}
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unhealthy", "error": err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "version": cfg.App.Version})
	})

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Let any in-flight cycle finish persisting before the server exits.
	sched.Shutdown(true)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title WHMCS Stock Monitor API
// @version 1.0
// @description Inventory stock monitoring service for WHMCS-backed storefronts.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "monitoring-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing monitoring-service CLI: %s\n", err)
		os.Exit(1)
	}
}
