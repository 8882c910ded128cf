// Package server exposes the comparison and eligibility services over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"loan-comparison-engine/internal/handlers"
	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/utils"
)

// ProductLister lists the loan catalog.
type ProductLister interface {
	ListAll(ctx context.Context) ([]*models.LoanProduct, error)
}

// Dependencies are the services the server routes to. Products may be nil,
// in which case the catalog endpoint returns an empty list.
type Dependencies struct {
	Comparer    handlers.Comparer
	Eligibility handlers.EligibilityChecker
	Products    ProductLister
	Health      *handlers.HealthHandler
}

// Options configures the listener and CORS policy.
type Options struct {
	Addr           string
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Server is the HTTP API.
type Server struct {
	deps       Dependencies
	logger     *zap.Logger
	handler    http.Handler
	httpServer *http.Server
}

// New builds a server and its routes.
func New(opts Options, deps Dependencies) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = utils.GetLogger()
	}
	if deps.Health == nil {
		deps.Health = handlers.NewHealthHandler(nil, "", "")
	}

	s := &Server{deps: deps, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.rootHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /products", s.productsHandler)
	mux.HandleFunc("GET /compare", s.compareHandler)
	mux.HandleFunc("GET /eligibility", s.eligibilityHandler)

	c := cors.New(handlers.CORSOptions(opts.AllowedOrigins))

	s.handler = requestIDMiddleware(loggingMiddleware(logger)(c.Handler(mux)))
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until Shutdown is called. It returns nil after a
// clean shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) rootHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Backend running"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Health.Report(r.Context())
	writeJSON(w, report.StatusCode(), report)
}

func (s *Server) productsHandler(w http.ResponseWriter, r *http.Request) {
	if s.deps.Products == nil {
		writeJSON(w, http.StatusOK, []*models.LoanProduct{})
		return
	}

	products, err := s.deps.Products.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) compareHandler(w http.ResponseWriter, r *http.Request) {
	amount, tenure, err := handlers.ParseCompareParams(queryParams(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Comparer.Compare(r.Context(), amount, tenure)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) eligibilityHandler(w http.ResponseWriter, r *http.Request) {
	app, err := handlers.ParseEligibilityParams(queryParams(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Eligibility.Check(r.Context(), app)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := handlers.StatusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("requestId", RequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, handlers.ErrorResponse{
		Error:   http.StatusText(status),
		Message: handlers.PublicMessage(err),
	})
}

// queryParams flattens the query string, keeping the first value of each key.
func queryParams(r *http.Request) map[string]string {
	values := r.URL.Query()
	params := make(map[string]string, len(values))
	for key := range values {
		params[key] = values.Get(key)
	}
	return params
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
