// Eligibility Check Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"loan-comparison-engine/internal/app"
	"loan-comparison-engine/internal/config"
	"loan-comparison-engine/internal/handlers"
	"loan-comparison-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		panic("Failed to create handler: " + err.Error())
	}
	defer application.Close()

	handler := handlers.NewEligibilityHandler(application.Eligibility).
		WithCORS(handlers.NewCORS(cfg.CORSAllowedOrigins))

	lambda.Start(handler.Handle)
}
