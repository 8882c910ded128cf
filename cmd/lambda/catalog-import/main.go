// Catalog Import Lambda entry point, triggered by S3 uploads
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

	ctx := context.Background()

	application, err := app.New(ctx, cfg)
	if err != nil {
		panic("Failed to create handler: " + err.Error())
	}
	defer application.Close()

	catalog, err := application.Catalog(ctx)
	if err != nil {
		panic("Failed to create S3 client: " + err.Error())
	}

	handler := handlers.NewCatalogImportHandler(catalog, application.Products, application.Comparison)

	lambda.Start(handler.Handle)
}
