package eligibility

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/utils"
)

// RateFinder looks up the catalog product with the lowest interest rate.
type RateFinder interface {
	FindLowestRate(ctx context.Context) (*models.LoanProduct, error)
}

// Notifier delivers an eligibility report to an applicant.
type Notifier interface {
	SendEligibilityReport(ctx context.Context, to string, report *models.EligibilityResponse) error
}

// Application is an eligibility request as received from a caller. When
// RateProvided is false the request is evaluated at the lowest catalog rate.
type Application struct {
	models.EligibilityRequest
	RateProvided bool
	Email        string
}

// Service evaluates applications, resolving the interest rate from the
// catalog when the caller does not supply one.
type Service struct {
	rates    RateFinder
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates an eligibility service. notifier may be nil.
func NewService(rates RateFinder, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Service{
		rates:    rates,
		notifier: notifier,
		logger:   logger,
	}
}

// Check evaluates the application and returns the verdict together with the
// rate it was evaluated at. Report delivery failures are logged, not returned.
func (s *Service) Check(ctx context.Context, app Application) (*models.EligibilityResponse, error) {
	req := app.EligibilityRequest

	if !app.RateProvided {
		rate, err := s.lowestRate(ctx)
		if err != nil {
			return nil, err
		}
		req.InterestRate = rate
	}

	verdict, err := CheckEligibility(req)
	if err != nil {
		return nil, err
	}

	resp := &models.EligibilityResponse{
		EligibilityVerdict: *verdict,
		InterestRate:       req.InterestRate,
	}

	s.logger.Debug("Evaluated eligibility",
		zap.Bool("eligible", verdict.Eligible),
		zap.Int("violations", len(verdict.Reasons)),
		zap.Float64("interest_rate", req.InterestRate),
	)

	if app.Email != "" && s.notifier != nil {
		if err := s.notifier.SendEligibilityReport(ctx, app.Email, resp); err != nil {
			s.logger.Warn("Failed to send eligibility report", zap.Error(err))
		}
	}

	return resp, nil
}

func (s *Service) lowestRate(ctx context.Context) (float64, error) {
	if s.rates == nil {
		return 0, models.ErrNoProducts
	}

	product, err := s.rates.FindLowestRate(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to find lowest rate product: %w", err)
	}
	if product == nil {
		return 0, models.ErrNoProducts
	}
	return product.InterestRate, nil
}
