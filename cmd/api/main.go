package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"circ-supply/internal/api"
	"circ-supply/internal/worker/config"
	"circ-supply/internal/worker/dao"
	"circ-supply/internal/worker/monitor"
	"circ-supply/pkg/database"
	"circ-supply/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.InitConfig()

	tp := logger.InitTrace("circ-supply", "api")
	defer tp.Shutdown(context.Background())

	tl := logger.NewLogger("api", logger.WithDir(cfg.Log.Dir))
	logger.SetLogLevel(cfg.Log.Level)
	defer tl.Sync()

	config.WatchConfig(&cfg)

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		tl.Fatal("Failed to open database", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// API 进程只读，不负责建表
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}

	daoManager := dao.NewDAOManager(db, rdb)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(daoManager.SnapshotDAO, cfg.Supply.DecimalsDisplay, tl)

	server := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	metrics := monitor.NewMetricsServer(cfg.Monitor, tl)
	metrics.Run()

	go func() {
		tl.Info("API server listening", zap.String("addr", cfg.API.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			tl.Fatal("API server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	tl.Info("Received shutdown signal, shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		tl.Warn("API server shutdown", zap.Error(err))
	}
	_ = metrics.Stop(ctx)
	tl.Info("API server exited")
}
