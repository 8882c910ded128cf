// Package main runs the loan comparison HTTP API.
package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loan-comparison-engine/internal/app"
	"loan-comparison-engine/internal/config"
	"loan-comparison-engine/internal/handlers"
	"loan-comparison-engine/internal/server"
	"loan-comparison-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, app.WithLocalCacheFallback())
	if err != nil {
		logger.Error("Failed to start", zap.Error(err))
		os.Exit(1)
	}
	defer application.Close()

	health := handlers.NewHealthHandler(application.DB, cfg.Version, cfg.Stage)
	if redisCache := application.Redis(); redisCache != nil {
		health = health.WithCache(redisCache)
	}

	srv := server.New(server.Options{
		Addr:           net.JoinHostPort("0.0.0.0", cfg.Port),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	}, server.Dependencies{
		Comparer:    application.Comparison,
		Eligibility: application.Eligibility,
		Products:    application.Products,
		Health:      health,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
		return
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
