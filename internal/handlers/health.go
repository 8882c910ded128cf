package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// ServiceName identifies the service in health reports.
const ServiceName = "loan-comparison-engine"

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db      HealthChecker
	cache   HealthChecker
	cors    *CORS
	version string
	stage   string
}

// NewHealthHandler creates a new health handler. db may be nil when the
// database is not configured.
func NewHealthHandler(db HealthChecker, version, stage string) *HealthHandler {
	return &HealthHandler{db: db, cors: NewCORS(nil), version: version, stage: stage}
}

// WithCORS replaces the default allow-any-origin policy.
func (h *HealthHandler) WithCORS(c *CORS) *HealthHandler {
	h.cors = c
	return h
}

// WithCache adds the comparison cache to the report. An unreachable cache
// is reported but does not degrade the service.
func (h *HealthHandler) WithCache(c HealthChecker) *HealthHandler {
	h.cache = c
	return h
}

// HealthResponse is the response structure for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Stage     string `json:"stage"`
	Database  string `json:"database,omitempty"`
	Cache     string `json:"cache,omitempty"`
}

// Report checks dependencies and builds the health response.
func (h *HealthHandler) Report(ctx context.Context) HealthResponse {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   ServiceName,
		Version:   h.version,
		Stage:     h.stage,
	}

	if h.cache != nil {
		response.Cache = "connected"
		if err := h.cache.HealthCheck(ctx); err != nil {
			response.Cache = "disconnected"
		}
	}

	if h.db == nil {
		response.Database = "not configured"
		return response
	}

	if err := h.db.HealthCheck(ctx); err != nil {
		response.Database = "disconnected"
		response.Status = "degraded"
	} else {
		response.Database = "connected"
	}
	return response
}

// StatusCode returns the HTTP status for a health response.
func (r HealthResponse) StatusCode() int {
	if r.Status != "healthy" {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Handle processes health check requests.
func (h *HealthHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	rp := h.cors.reply(request)
	if resp, done := preflight(rp, request); done {
		return resp, nil
	}

	response := h.Report(ctx)
	return jsonResponse(rp, response.StatusCode(), response)
}
