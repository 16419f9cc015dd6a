package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/vendor-performance-api/config"
	"github.com/kendall-kelly/vendor-performance-api/logger"
	"github.com/kendall-kelly/vendor-performance-api/performance"
	"github.com/kendall-kelly/vendor-performance-api/routes"
	"github.com/kendall-kelly/vendor-performance-api/services"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetConfig(cfg)

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.GoEnv,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	zlog := logger.GetLogger()
	defer func() { _ = zlog.Sync() }()

	zlog.Info("Starting Vendor Performance API server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.ConnectDatabase(); err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	db := config.GetDB()

	if err := config.MigrateDatabase(db); err != nil {
		zlog.Fatal("Failed to migrate database", zap.Error(err))
	}
	zlog.Info("Database migration completed successfully")

	if cfg.ReportsEnabled() {
		if _, err := services.InitS3Service(ctx, cfg); err != nil {
			zlog.Fatal("Failed to initialize report storage", zap.Error(err))
		}
		zlog.Info("Report storage initialized", zap.String("bucket", cfg.AWSS3Bucket))
	} else {
		zlog.Warn("AWS_S3_BUCKET is not set, performance report export is disabled")
	}

	engine := performance.NewEngine(
		performance.NewGormStore(db),
		performance.WithWorkers(cfg.RecomputeWorkers),
		performance.WithLogger(zlog.Named("performance")),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := routes.New(cfg, routes.Dependencies{
		DB:      db,
		Engine:  engine,
		Reports: services.GetReportStorage(),
	})
	if err != nil {
		zlog.Fatal("Failed to build router", zap.Error(err))
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("Server is running", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server shutdown failed", zap.Error(err))
	}
}
