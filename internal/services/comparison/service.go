package comparison

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/services/cache"
	"loan-comparison-engine/internal/utils"
)

// CacheKeyPrefix namespaces cached comparison responses.
const CacheKeyPrefix = "compare:v1:"

// ProductLister lists the loan catalog.
type ProductLister interface {
	ListAll(ctx context.Context) ([]*models.LoanProduct, error)
}

// Service compares the catalog against a requested loan.
type Service struct {
	products ProductLister
	cache    cache.Repository
	ttl      time.Duration
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables response caching with the given time-to-live.
func WithCache(c cache.Repository, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithLogger sets the logger used by the service.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a comparison service over the given catalog.
func NewService(products ProductLister, opts ...Option) *Service {
	s := &Service{products: products}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = utils.GetLogger()
	}
	return s
}

// Compare ranks every catalog product for the requested amount and tenure.
func (s *Service) Compare(ctx context.Context, amount int64, tenure int) (*models.ComparisonResponse, error) {
	if amount <= 0 {
		return nil, models.NewInvalidInput("amount", "must be greater than zero")
	}
	if tenure <= 0 {
		return nil, models.NewInvalidInput("tenure", "must be greater than zero")
	}

	key := cacheKey(amount, tenure)
	if cached, ok := s.lookup(ctx, key); ok {
		return cached, nil
	}

	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list loan products: %w", err)
	}

	results, err := CompareLoans(products, amount, tenure)
	if err != nil {
		return nil, err
	}

	resp := models.NewComparisonResponse(results)

	s.logger.Debug("Compared loan products",
		zap.Int64("amount", amount),
		zap.Int("tenure", tenure),
		zap.Int("products", len(products)),
	)

	s.store(ctx, key, resp)
	return resp, nil
}

// InvalidateCache drops every cached comparison. It is a no-op without a cache.
func (s *Service) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeletePrefix(ctx, CacheKeyPrefix)
}

func (s *Service) lookup(ctx context.Context, key string) (*models.ComparisonResponse, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}

	var resp models.ComparisonResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		s.logger.Warn("Discarding unreadable cached comparison", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if resp.Comparisons == nil {
		resp.Comparisons = []models.ComparisonResult{}
	}
	return &resp, true
}

func (s *Service) store(ctx context.Context, key string, resp *models.ComparisonResponse) {
	if s.cache == nil {
		return
	}

	body, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("Failed to encode comparison for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(body), s.ttl); err != nil {
		s.logger.Warn("Failed to cache comparison", zap.String("key", key), zap.Error(err))
	}
}

func cacheKey(amount int64, tenure int) string {
	return fmt.Sprintf("%s%d:%d", CacheKeyPrefix, amount, tenure)
}
