package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-comparison-engine/internal/handlers"
	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/services/eligibility"
	s3service "loan-comparison-engine/internal/services/s3"
)

type stubComparer struct {
	resp   *models.ComparisonResponse
	err    error
	amount int64
	tenure int
}

func (s *stubComparer) Compare(_ context.Context, amount int64, tenure int) (*models.ComparisonResponse, error) {
	s.amount, s.tenure = amount, tenure
	return s.resp, s.err
}

type stubChecker struct {
	resp *models.EligibilityResponse
	err  error
	app  eligibility.Application
}

func (s *stubChecker) Check(_ context.Context, app eligibility.Application) (*models.EligibilityResponse, error) {
	s.app = app
	return s.resp, s.err
}

type stubHealth struct{ err error }

func (s stubHealth) HealthCheck(context.Context) error { return s.err }

func get(params map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, QueryStringParameters: params}
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, handlers.StatusForError(models.NewInvalidInput("amount", "is required")))
	assert.Equal(t, http.StatusNotFound, handlers.StatusForError(models.ErrNoProducts))
	assert.Equal(t, http.StatusInternalServerError, handlers.StatusForError(errors.New("boom")))
	assert.Equal(t, "Internal server error", handlers.PublicMessage(errors.New("password=hunter2")))
}

func TestCompareHandler_OK(t *testing.T) {
	best := "National Bank"
	svc := &stubComparer{resp: &models.ComparisonResponse{
		BestOption:  &best,
		Comparisons: []models.ComparisonResult{{Bank: best, InterestRate: 10.5, EMI: 3250, TotalInterest: 17000, ProcessingFee: 1000, TotalCost: 118000}},
	}}

	resp, err := handlers.NewCompareHandler(svc).Handle(context.Background(), get(map[string]string{"amount": "100000", "tenure": "36"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Headers[handlers.RequestIDHeader])
	assert.Equal(t, int64(100000), svc.amount)
	assert.Equal(t, 36, svc.tenure)

	var body models.ComparisonResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.NotNil(t, body.BestOption)
	assert.Equal(t, "National Bank", *body.BestOption)
	assert.Equal(t, 118000.0, body.Comparisons[0].TotalCost)
}

func TestCompareHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		req    events.APIGatewayProxyRequest
		svcErr error
		status int
	}{
		{"missing params", get(nil), nil, http.StatusBadRequest},
		{"service rejects", get(map[string]string{"amount": "-5", "tenure": "36"}), models.NewInvalidInput("amount", "must be greater than zero"), http.StatusBadRequest},
		{"internal failure", get(map[string]string{"amount": "5", "tenure": "36"}), errors.New("db down"), http.StatusInternalServerError},
		{"wrong method", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost}, nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := handlers.NewCompareHandler(&stubComparer{err: tt.svcErr}).Handle(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.NotContains(t, body.Message, "db down")
		})
	}
}

func TestCompareHandler_PreflightAndRequestID(t *testing.T) {
	h := handlers.NewCompareHandler(&stubComparer{})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodOptions,
		Headers:    map[string]string{"x-request-id": "abc-123"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc-123", resp.Headers[handlers.RequestIDHeader])
	assert.Equal(t, "GET,OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
}

func TestCompareHandler_CORS(t *testing.T) {
	best := "National Bank"
	svc := &stubComparer{resp: &models.ComparisonResponse{BestOption: &best, Comparisons: []models.ComparisonResult{}}}
	h := handlers.NewCompareHandler(svc).WithCORS(handlers.NewCORS([]string{"http://localhost:8080"}))

	request := func(origin string) events.APIGatewayProxyRequest {
		req := get(map[string]string{"amount": "100000", "tenure": "36"})
		req.Headers = map[string]string{"origin": origin}
		return req
	}

	resp, err := h.Handle(context.Background(), request("http://localhost:8080"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "Origin", resp.Headers["Vary"])

	resp, err = h.Handle(context.Background(), request("https://evil.example.com"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, resp.Headers, "Access-Control-Allow-Origin")
}

func TestHandlers_DefaultCORSAllowsAnyOrigin(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodOptions,
		Headers:    map[string]string{"Origin": "https://app.example.com"},
	}

	resp, err := handlers.NewHealthHandler(nil, "1.0.0", "test").Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com", resp.Headers["Access-Control-Allow-Origin"])

	resp, err = handlers.NewHealthHandler(nil, "1.0.0", "test").
		WithCORS(handlers.NewCORS([]string{"http://localhost:8080"})).
		Handle(context.Background(), req)
	require.NoError(t, err)
	assert.NotContains(t, resp.Headers, "Access-Control-Allow-Origin")
}

func TestEligibilityHandler(t *testing.T) {
	svc := &stubChecker{resp: &models.EligibilityResponse{
		EligibilityVerdict: models.EligibilityVerdict{Eligible: true, MonthlyEMI: 10747, FOIR: 0.16, MaxEligibleLoan: 6000000, Reasons: []string{}},
		InterestRate:       10.5,
	}}

	resp, err := handlers.NewEligibilityHandler(svc).Handle(context.Background(), get(map[string]string{
		"monthly_income":  "100000",
		"existing_emi":    "5000",
		"age":             "30",
		"employment_type": "salaried",
		"loan_amount":     "500000",
		"tenure_months":   "60",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, svc.app.RateProvided)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, true, body["eligible"])
	assert.Equal(t, 10.5, body["interest_rate"])
	assert.Equal(t, []interface{}{}, body["reasons"])
}

func TestEligibilityHandler_NoProducts(t *testing.T) {
	svc := &stubChecker{err: models.ErrNoProducts}

	resp, err := handlers.NewEligibilityHandler(svc).Handle(context.Background(), get(map[string]string{
		"monthly_income":  "100000",
		"existing_emi":    "0",
		"age":             "30",
		"employment_type": "salaried",
		"loan_amount":     "500000",
		"tenure_months":   "60",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Body, "no loan products available")
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		db       handlers.HealthChecker
		status   int
		database string
	}{
		{"no database", nil, http.StatusOK, "not configured"},
		{"connected", stubHealth{}, http.StatusOK, "connected"},
		{"disconnected", stubHealth{err: errors.New("refused")}, http.StatusServiceUnavailable, "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := handlers.NewHealthHandler(tt.db, "1.0.0", "test").Handle(context.Background(), get(nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body handlers.HealthResponse
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.Equal(t, tt.database, body.Database)
			assert.Equal(t, handlers.ServiceName, body.Service)
			assert.Equal(t, "test", body.Stage)
		})
	}
}

func TestHealthHandler_ReportsCache(t *testing.T) {
	tests := []struct {
		name  string
		cache handlers.HealthChecker
		want  string
	}{
		{"connected", stubHealth{}, "connected"},
		{"disconnected", stubHealth{err: errors.New("refused")}, "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(stubHealth{}, "1.0.0", "test").WithCache(tt.cache)
			report := h.Report(context.Background())

			assert.Equal(t, tt.want, report.Cache)
			assert.Equal(t, "healthy", report.Status)
			assert.Equal(t, http.StatusOK, report.StatusCode())
		})
	}

	report := handlers.NewHealthHandler(stubHealth{}, "1.0.0", "test").Report(context.Background())
	assert.Empty(t, report.Cache)
}

type stubFiles struct {
	result   *s3service.ImportResult
	err      error
	archived []string
}

func (s *stubFiles) ImportCatalog(context.Context, string) (*s3service.ImportResult, error) {
	return s.result, s.err
}

func (s *stubFiles) ArchiveFile(_ context.Context, key string) error {
	s.archived = append(s.archived, key)
	return nil
}

type stubWriter struct {
	written []*models.LoanProductCreate
}

func (s *stubWriter) BulkUpsert(_ context.Context, products []*models.LoanProductCreate) (*models.BulkInsertResult, error) {
	s.written = append(s.written, products...)
	return &models.BulkInsertResult{InsertedCount: len(products)}, nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateCache(context.Context) error {
	c.calls++
	return nil
}

func s3Event(key string) events.S3Event {
	var record events.S3EventRecord
	record.S3.Bucket.Name = "loan-catalog-test"
	record.S3.Object.Key = key
	return events.S3Event{Records: []events.S3EventRecord{record}}
}

func TestCatalogImportHandler(t *testing.T) {
	files := &stubFiles{result: &s3service.ImportResult{
		Products: []*models.LoanProductCreate{{Bank: "Alpha", InterestRate: 9.5, ProcessingFeePercent: 1}},
		Errors:   []error{errors.New("line 3: bank cannot be empty")},
	}}
	store := &stubWriter{}
	cache := &countingInvalidator{}

	result, err := handlers.NewCatalogImportHandler(files, store, cache).Handle(context.Background(), s3Event("uploads/new+catalog.csv"))
	require.NoError(t, err)

	assert.Equal(t, "uploads/new catalog.csv", result.Key)
	assert.Equal(t, 1, result.Upserted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"line 3: bank cannot be empty"}, result.Errors)
	assert.Len(t, store.written, 1)
	assert.Equal(t, 1, cache.calls)
	assert.Equal(t, []string{"uploads/new catalog.csv"}, files.archived)
}

func TestCatalogImportHandler_NoValidProducts(t *testing.T) {
	files := &stubFiles{result: &s3service.ImportResult{Errors: []error{errors.New("no data rows")}}}
	store := &stubWriter{}
	cache := &countingInvalidator{}

	result, err := handlers.NewCatalogImportHandler(files, store, cache).Handle(context.Background(), s3Event("uploads/bad.csv"))
	require.NoError(t, err)
	assert.Equal(t, "No valid products found in CSV", result.Message)
	assert.Empty(t, store.written)
	assert.Zero(t, cache.calls)
	assert.Empty(t, files.archived)
}

func TestCatalogImportHandler_SkipsArchivedAndEmptyEvents(t *testing.T) {
	h := handlers.NewCatalogImportHandler(&stubFiles{}, &stubWriter{}, nil)

	result, err := h.Handle(context.Background(), events.S3Event{})
	require.NoError(t, err)
	assert.Equal(t, "No records to process", result.Message)

	result, err = h.Handle(context.Background(), s3Event("processed/uploads/a.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Skipping archived file", result.Message)
}

type stubSigner struct {
	key string
	err error
}

func (s *stubSigner) GeneratePresignedUploadURL(_ context.Context, key string, expiry time.Duration) (*s3service.PresignedURLResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.key = key
	return &s3service.PresignedURLResult{URL: "https://example.com/" + key, Key: key, ExpiresAt: time.Now().Add(expiry)}, nil
}

func TestPresignedURLHandler(t *testing.T) {
	signer := &stubSigner{}

	resp, err := handlers.NewPresignedURLHandler(signer).Handle(context.Background(), get(map[string]string{"filename": "my rates!.csv"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, signer.key, "uploads/")
	assert.Contains(t, signer.key, "_myrates.csv")

	var body handlers.PresignedURLResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, signer.key, body.S3Key)
	assert.Equal(t, 3600, body.ExpiresIn)
}

func TestPresignedURLHandler_Errors(t *testing.T) {
	resp, err := handlers.NewPresignedURLHandler(&stubSigner{}).Handle(context.Background(), get(map[string]string{"filename": "rates.xlsx"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = handlers.NewPresignedURLHandler(&stubSigner{err: errors.New("no creds")}).Handle(context.Background(), get(nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
