package handlers

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/services/eligibility"
	"loan-comparison-engine/internal/utils"
)

// EligibilityChecker evaluates an application.
type EligibilityChecker interface {
	Check(ctx context.Context, app eligibility.Application) (*models.EligibilityResponse, error)
}

// EligibilityHandler handles eligibility check requests.
type EligibilityHandler struct {
	svc    EligibilityChecker
	cors   *CORS
	logger *zap.Logger
}

// NewEligibilityHandler creates a new eligibility handler.
func NewEligibilityHandler(svc EligibilityChecker) *EligibilityHandler {
	return &EligibilityHandler{svc: svc, cors: NewCORS(nil), logger: utils.GetLogger()}
}

// WithCORS replaces the default allow-any-origin policy.
func (h *EligibilityHandler) WithCORS(c *CORS) *EligibilityHandler {
	h.cors = c
	return h
}

// Handle processes GET /eligibility.
func (h *EligibilityHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	rp := h.cors.reply(request)
	if resp, done := preflight(rp, request); done {
		return resp, nil
	}

	app, err := ParseEligibilityParams(request.QueryStringParameters)
	if err != nil {
		return errorResponse(rp, StatusForError(err), err.Error())
	}

	result, err := h.svc.Check(ctx, app)
	if err != nil {
		h.logger.Error("Eligibility check failed",
			zap.String("requestId", rp.requestID),
			zap.Error(err),
		)
		return errorResponse(rp, StatusForError(err), PublicMessage(err))
	}

	return jsonResponse(rp, http.StatusOK, result)
}
