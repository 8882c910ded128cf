package handlers

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/utils"
)

// Comparer ranks the catalog for a requested loan.
type Comparer interface {
	Compare(ctx context.Context, amount int64, tenure int) (*models.ComparisonResponse, error)
}

// CompareHandler handles loan comparison requests.
type CompareHandler struct {
	svc    Comparer
	cors   *CORS
	logger *zap.Logger
}

// NewCompareHandler creates a new compare handler.
func NewCompareHandler(svc Comparer) *CompareHandler {
	return &CompareHandler{svc: svc, cors: NewCORS(nil), logger: utils.GetLogger()}
}

// WithCORS replaces the default allow-any-origin policy.
func (h *CompareHandler) WithCORS(c *CORS) *CompareHandler {
	h.cors = c
	return h
}

// Handle processes GET /compare?amount=&tenure=.
func (h *CompareHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	rp := h.cors.reply(request)
	if resp, done := preflight(rp, request); done {
		return resp, nil
	}

	amount, tenure, err := ParseCompareParams(request.QueryStringParameters)
	if err != nil {
		return errorResponse(rp, StatusForError(err), err.Error())
	}

	result, err := h.svc.Compare(ctx, amount, tenure)
	if err != nil {
		h.logger.Error("Comparison failed",
			zap.String("requestId", rp.requestID),
			zap.Int64("amount", amount),
			zap.Int("tenure", tenure),
			zap.Error(err),
		)
		return errorResponse(rp, StatusForError(err), PublicMessage(err))
	}

	return jsonResponse(rp, http.StatusOK, result)
}
