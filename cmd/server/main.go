package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/milith0kun/Portafolio-sub000/config"
	"github.com/milith0kun/Portafolio-sub000/internal/api/handler"
	"github.com/milith0kun/Portafolio-sub000/internal/api/router"
	"github.com/milith0kun/Portafolio-sub000/internal/repository"
	"github.com/milith0kun/Portafolio-sub000/internal/service"
	"github.com/milith0kun/Portafolio-sub000/pkg/database"
	"github.com/milith0kun/Portafolio-sub000/pkg/jwt"
	applogger "github.com/milith0kun/Portafolio-sub000/pkg/logger"
	"github.com/milith0kun/Portafolio-sub000/pkg/redis"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	logger.Info("database connected")

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("unwrap sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// redis is optional: without it token revocation and rate limiting
	// degrade, everything else keeps working
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, token blacklist disabled", zap.Error(err))
		rdb = nil
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)

	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, logger)

	// ensure the default section taxonomy exists before any generation
	if err := svc.Template.Seed(context.Background()); err != nil {
		logger.Fatal("seed structure template", zap.Error(err))
	}

	h := handler.NewHandler(svc)
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
