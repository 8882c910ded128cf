package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"loan-comparison-engine/internal/models"
	s3service "loan-comparison-engine/internal/services/s3"
	"loan-comparison-engine/internal/utils"
)

// maxReportedErrors caps the error list returned to the invoker.
const maxReportedErrors = 10

// CatalogFiles reads and archives uploaded catalog files.
type CatalogFiles interface {
	ImportCatalog(ctx context.Context, key string) (*s3service.ImportResult, error)
	ArchiveFile(ctx context.Context, key string) error
}

// CatalogWriter persists imported products.
type CatalogWriter interface {
	BulkUpsert(ctx context.Context, products []*models.LoanProductCreate) (*models.BulkInsertResult, error)
}

// CacheInvalidator drops cached comparisons after the catalog changes.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// CatalogImportHandler imports product CSV files uploaded to S3.
type CatalogImportHandler struct {
	files  CatalogFiles
	store  CatalogWriter
	cache  CacheInvalidator
	logger *zap.Logger
}

// NewCatalogImportHandler creates a new catalog import handler. cache may be nil.
func NewCatalogImportHandler(files CatalogFiles, store CatalogWriter, cache CacheInvalidator) *CatalogImportHandler {
	return &CatalogImportHandler{
		files:  files,
		store:  store,
		cache:  cache,
		logger: utils.GetLogger(),
	}
}

// CatalogImportResult is the result of importing a catalog file.
type CatalogImportResult struct {
	Message  string   `json:"message"`
	Key      string   `json:"key,omitempty"`
	Upserted int      `json:"upserted"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Handle processes S3 events for uploaded catalog files.
func (h *CatalogImportHandler) Handle(ctx context.Context, s3Event events.S3Event) (CatalogImportResult, error) {
	if len(s3Event.Records) == 0 {
		return CatalogImportResult{Message: "No records to process"}, nil
	}

	record := s3Event.Records[0]
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return CatalogImportResult{}, fmt.Errorf("failed to decode S3 key: %w", err)
	}

	if strings.HasPrefix(key, s3service.ArchivePrefix) {
		return CatalogImportResult{Message: "Skipping archived file", Key: key}, nil
	}

	h.logger.Info("Importing catalog file",
		zap.String("bucket", record.S3.Bucket.Name),
		zap.String("key", key),
	)

	imported, err := h.files.ImportCatalog(ctx, key)
	if err != nil {
		return CatalogImportResult{}, err
	}

	parseErrors := make([]string, 0, len(imported.Errors))
	for _, e := range imported.Errors {
		parseErrors = append(parseErrors, e.Error())
	}

	if len(imported.Products) == 0 {
		return CatalogImportResult{
			Message: "No valid products found in CSV",
			Key:     key,
			Failed:  len(parseErrors),
			Errors:  truncateErrors(parseErrors),
		}, nil
	}

	result, err := h.store.BulkUpsert(ctx, imported.Products)
	if err != nil {
		h.logger.Error("Failed to upsert products", zap.String("key", key), zap.Error(err))
		return CatalogImportResult{}, fmt.Errorf("failed to upsert products: %w", err)
	}

	h.logger.Info("Imported catalog file",
		zap.String("key", key),
		zap.Int("upserted", result.InsertedCount),
		zap.Int("failed", result.FailedCount+len(parseErrors)),
	)

	if h.cache != nil && result.InsertedCount > 0 {
		if err := h.cache.InvalidateCache(ctx); err != nil {
			h.logger.Warn("Failed to invalidate comparison cache", zap.Error(err))
		}
	}

	if err := h.files.ArchiveFile(ctx, key); err != nil {
		h.logger.Warn("Failed to archive file", zap.String("key", key), zap.Error(err))
	}

	return CatalogImportResult{
		Message:  "Catalog imported successfully",
		Key:      key,
		Upserted: result.InsertedCount,
		Failed:   result.FailedCount + len(parseErrors),
		Errors:   truncateErrors(append(parseErrors, result.Errors...)),
	}, nil
}

func truncateErrors(errs []string) []string {
	if len(errs) > maxReportedErrors {
		return errs[:maxReportedErrors]
	}
	return errs
}
