// Catalog Upload URL Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"loan-comparison-engine/internal/config"
	"loan-comparison-engine/internal/handlers"
	s3service "loan-comparison-engine/internal/services/s3"
	"loan-comparison-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	catalog, err := s3service.NewService(context.Background(), cfg.AWSRegion, cfg.S3Bucket)
	if err != nil {
		panic("Failed to create handler: " + err.Error())
	}

	handler := handlers.NewPresignedURLHandler(catalog).
		WithCORS(handlers.NewCORS(cfg.CORSAllowedOrigins))

	lambda.Start(handler.Handle)
}
