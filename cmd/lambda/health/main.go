// Health Check Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"loan-comparison-engine/internal/config"
	"loan-comparison-engine/internal/handlers"
	"loan-comparison-engine/internal/services/database"
	"loan-comparison-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	// The health check still answers when the database is unreachable.
	var db handlers.HealthChecker
	conn, err := database.New(context.Background(), cfg)
	if err != nil {
		utils.GetLogger().Warn("Database unavailable", zap.Error(err))
	} else {
		defer conn.Close()
		db = conn
	}

	handler := handlers.NewHealthHandler(db, cfg.Version, cfg.Stage).
		WithCORS(handlers.NewCORS(cfg.CORSAllowedOrigins))

	lambda.Start(handler.Handle)
}
