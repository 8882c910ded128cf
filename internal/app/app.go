// Package app wires configuration into the services shared by the server,
// the Lambda functions and the catalog CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"loan-comparison-engine/internal/config"
	"loan-comparison-engine/internal/services/cache"
	"loan-comparison-engine/internal/services/comparison"
	"loan-comparison-engine/internal/services/database"
	"loan-comparison-engine/internal/services/eligibility"
	s3service "loan-comparison-engine/internal/services/s3"
	"loan-comparison-engine/internal/services/ses"
	"loan-comparison-engine/internal/utils"
)

// App holds the connected services.
type App struct {
	Config      *config.Config
	DB          *database.DB
	Products    *database.ProductRepository
	Comparison  *comparison.Service
	Eligibility *eligibility.Service
	Logger      *zap.Logger

	redis *cache.RedisCache
}

// Option configures New.
type Option func(*options)

type options struct {
	localCacheFallback bool
}

// WithLocalCacheFallback caches comparisons in process memory when Redis is
// not configured or unreachable.
func WithLocalCacheFallback() Option {
	return func(o *options) {
		o.localCacheFallback = true
	}
}

// New connects to the database and, when configured, Redis and SES.
// Redis and SES failures degrade the service instead of failing startup.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	logger := utils.GetLogger()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &App{
		Config:   cfg,
		DB:       db,
		Products: database.NewProductRepository(db),
		Logger:   logger,
	}

	compareOpts := []comparison.Option{comparison.WithLogger(logger)}
	var comparisonCache cache.Repository
	comparisonCache, a.redis = newComparisonCache(ctx, cfg, o, logger)
	if comparisonCache != nil {
		compareOpts = append(compareOpts, comparison.WithCache(comparisonCache, cfg.CacheTTL))
	}
	a.Comparison = comparison.NewService(a.Products, compareOpts...)

	var notifier eligibility.Notifier
	if cfg.NotificationsEnabled() {
		sesService, err := ses.NewService(ctx, cfg.AWSRegion, cfg.SESSenderEmail)
		if err != nil {
			logger.Warn("SES unavailable, eligibility reports will not be emailed", zap.Error(err))
		} else {
			notifier = sesService
		}
	}
	a.Eligibility = eligibility.NewService(a.Products, notifier, logger)

	return a, nil
}

// newComparisonCache connects to Redis when configured. Without Redis it
// returns an in-memory cache if the fallback option is set, or nil.
func newComparisonCache(ctx context.Context, cfg *config.Config, o options, logger *zap.Logger) (cache.Repository, *cache.RedisCache) {
	if cfg.CacheEnabled() {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			return redisCache, redisCache
		}
		logger.Warn("Redis unavailable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	if !o.localCacheFallback {
		logger.Info("Comparison cache disabled")
		return nil, nil
	}
	logger.Info("Caching comparisons in memory")
	return cache.NewMemoryCache(), nil
}

// Redis returns the Redis cache, or nil when comparisons are not cached in
// Redis.
func (a *App) Redis() *cache.RedisCache {
	return a.redis
}

// Catalog returns the S3 catalog store for the configured bucket.
func (a *App) Catalog(ctx context.Context) (*s3service.Service, error) {
	return s3service.NewService(ctx, a.Config.AWSRegion, a.Config.S3Bucket)
}

// Close releases every connection the app holds.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
