// Package s3service stores loan catalog CSV files in S3.
package s3service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/utils"
)

const (
	csvContentType = "text/csv"

	// ArchivePrefix is where imported catalog files are moved.
	ArchivePrefix = "processed/"
)

// ObjectAPI is the subset of the S3 client the catalog store uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Service handles catalog files in S3.
type Service struct {
	client     ObjectAPI
	presigner  *s3.PresignClient
	bucketName string
	logger     *zap.Logger
}

// PresignedURLResult contains the presigned URL details.
type PresignedURLResult struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImportResult is the outcome of parsing a catalog file.
type ImportResult struct {
	Products []*models.LoanProductCreate
	Errors   []error
}

// NewService creates a new S3 service from the default AWS credential chain.
func NewService(ctx context.Context, region, bucket string) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &Service{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucketName: bucket,
		logger:     utils.GetLogger(),
	}, nil
}

// NewServiceWithClient creates a service over an existing client.
func NewServiceWithClient(client ObjectAPI, bucket string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Service{
		client:     client,
		bucketName: bucket,
		logger:     logger,
	}
}

// Bucket returns the bucket the service operates on.
func (s *Service) Bucket() string {
	return s.bucketName
}

// GeneratePresignedUploadURL creates a presigned URL for uploading a catalog file.
func (s *Service) GeneratePresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (*PresignedURLResult, error) {
	if s.presigner == nil {
		return nil, errors.New("presigning is not available for this client")
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(csvContentType),
	}

	presignedReq, err := s.presigner.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		s.logger.Error("Failed to generate presigned URL",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedURLResult{
		URL:       presignedReq.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

// DownloadFile downloads an object from S3.
func (s *Service) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error("Failed to download file from S3",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	s.logger.Info("Downloaded file from S3",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)

	return data, nil
}

// UploadFile uploads an object to S3.
func (s *Service) UploadFile(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("Failed to upload file to S3",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upload file: %w", err)
	}

	s.logger.Info("Uploaded file to S3",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)

	return nil
}

// ImportCatalog downloads a catalog CSV and parses it into products.
func (s *Service) ImportCatalog(ctx context.Context, key string) (*ImportResult, error) {
	data, err := s.DownloadFile(ctx, key)
	if err != nil {
		return nil, err
	}

	products, parseErrors := utils.NewCSVParser().ParseProducts(string(data))
	return &ImportResult{Products: products, Errors: parseErrors}, nil
}

// ExportCatalog writes the products as CSV to key.
func (s *Service) ExportCatalog(ctx context.Context, key string, products []*models.LoanProduct) error {
	body, err := utils.WriteProductsCSV(products)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return s.UploadFile(ctx, key, body, csvContentType)
}

// ArchiveFile moves an imported file under ArchivePrefix.
func (s *Service) ArchiveFile(ctx context.Context, key string) error {
	archiveKey := ArchivePrefix + key
	copySource := s.bucketName + "/" + key

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucketName),
		CopySource: aws.String(copySource),
		Key:        aws.String(archiveKey),
	})
	if err != nil {
		return fmt.Errorf("failed to copy to archive: %w", err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete original: %w", err)
	}

	s.logger.Info("Archived catalog file",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
		zap.String("archiveKey", archiveKey),
	)
	return nil
}
