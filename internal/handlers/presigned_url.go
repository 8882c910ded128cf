package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	s3service "loan-comparison-engine/internal/services/s3"
	"loan-comparison-engine/internal/utils"
)

const (
	uploadURLExpiry   = time.Hour
	maxFilenameLength = 100
)

// UploadURLSigner creates presigned catalog upload URLs.
type UploadURLSigner interface {
	GeneratePresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (*s3service.PresignedURLResult, error)
}

// PresignedURLHandler hands out URLs for uploading catalog CSV files.
type PresignedURLHandler struct {
	signer UploadURLSigner
	cors   *CORS
	logger *zap.Logger
	now    func() time.Time
}

// NewPresignedURLHandler creates a new presigned URL handler.
func NewPresignedURLHandler(signer UploadURLSigner) *PresignedURLHandler {
	return &PresignedURLHandler{
		signer: signer,
		cors:   NewCORS(nil),
		logger: utils.GetLogger(),
		now:    time.Now,
	}
}

// WithCORS replaces the default allow-any-origin policy.
func (h *PresignedURLHandler) WithCORS(c *CORS) *PresignedURLHandler {
	h.cors = c
	return h
}

// PresignedURLResponse is the response structure for presigned URL requests.
type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	S3Key     string `json:"s3Key"`
	ExpiresIn int    `json:"expiresIn"`
}

// Handle processes GET /catalog/upload-url?filename=.
func (h *PresignedURLHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	rp := h.cors.reply(request)
	if resp, done := preflight(rp, request); done {
		return resp, nil
	}

	filename := request.QueryStringParameters["filename"]
	if filename == "" {
		filename = "catalog_" + uuid.New().String()[:8] + ".csv"
	}

	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return errorResponse(rp, http.StatusBadRequest, "Only CSV files are allowed")
	}

	key := "uploads/" + h.now().UTC().Format("2006/01/02") + "/" + uuid.New().String() + "_" + sanitizeFilename(filename)

	result, err := h.signer.GeneratePresignedUploadURL(ctx, key, uploadURLExpiry)
	if err != nil {
		h.logger.Error("Failed to generate presigned URL", zap.String("requestId", rp.requestID), zap.Error(err))
		return errorResponse(rp, http.StatusInternalServerError, "Failed to generate upload URL")
	}

	h.logger.Info("Generated presigned URL", zap.String("s3Key", result.Key))

	return jsonResponse(rp, http.StatusOK, PresignedURLResponse{
		UploadURL: result.URL,
		S3Key:     result.Key,
		ExpiresIn: int(uploadURLExpiry.Seconds()),
	})
}

// sanitizeFilename keeps only characters that are safe in an S3 key.
func sanitizeFilename(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := b.String()
	if len(safe) > maxFilenameLength {
		safe = safe[len(safe)-maxFilenameLength:]
	}
	return safe
}
