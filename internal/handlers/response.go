// Package handlers provides API Gateway handlers for the loan comparison engine.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"loan-comparison-engine/internal/models"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusForError maps a service error to an HTTP status code.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNoProducts):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a caller for err.
// Internal failures are not echoed back.
func PublicMessage(err error) string {
	if StatusForError(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}

// requestID reuses the id forwarded by the caller or mints a new one.
func requestID(request events.APIGatewayProxyRequest) string {
	if id := header(request, RequestIDHeader); id != "" {
		return id
	}
	return uuid.New().String()
}

func jsonResponse(rp reply, statusCode int, payload interface{}) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return errorResponse(rp, http.StatusInternalServerError, "Failed to encode response")
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    rp.headers(),
		Body:       string(body),
	}, nil
}

func errorResponse(rp reply, statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    rp.headers(),
		Body:       string(body),
	}, nil
}

// preflight answers CORS preflight and rejects methods other than GET.
func preflight(rp reply, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, bool) {
	switch request.HTTPMethod {
	case "", http.MethodGet:
		return events.APIGatewayProxyResponse{}, false
	case http.MethodOptions:
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    rp.headers(),
		}, true
	default:
		resp, _ := errorResponse(rp, http.StatusMethodNotAllowed, "Method not allowed")
		return resp, true
	}
}
