// Package comparison ranks loan products by the total cost of borrowing.
package comparison

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/services/emi"
)

var hundred = decimal.NewFromInt(100)

// CompareLoans computes a cost breakdown for every product and returns the
// results ordered by ascending total cost. Products with equal total cost
// keep their input order. An empty catalog yields an empty result.
func CompareLoans(products []*models.LoanProduct, amount int64, tenure int) ([]models.ComparisonResult, error) {
	if amount <= 0 {
		return nil, models.NewInvalidInput("amount", "must be greater than zero")
	}
	if tenure <= 0 {
		return nil, models.NewInvalidInput("tenure", "must be greater than zero")
	}

	results := make([]models.ComparisonResult, 0, len(products))
	for _, product := range products {
		result, err := breakdown(product, amount, tenure)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalCost < results[j].TotalCost
	})

	return results, nil
}

// breakdown derives the cost figures of a single product.
func breakdown(product *models.LoanProduct, amount int64, tenure int) (models.ComparisonResult, error) {
	if product == nil {
		return models.ComparisonResult{}, models.NewInvalidInput("product", "cannot be nil")
	}

	installment, err := emi.Calculate(amount, product.InterestRate, tenure)
	if err != nil {
		return models.ComparisonResult{}, fmt.Errorf("product %q: %w", product.Bank, err)
	}

	totalPayment := installment * int64(tenure)
	fee := ProcessingFee(amount, product.ProcessingFeePercent)

	return models.ComparisonResult{
		Bank:          product.Bank,
		InterestRate:  product.InterestRate,
		EMI:           installment,
		TotalInterest: totalPayment - amount,
		ProcessingFee: fee,
		TotalCost:     decimal.NewFromInt(totalPayment).Add(decimal.NewFromFloat(fee)).InexactFloat64(),
	}, nil
}

// ProcessingFee returns the upfront fee charged on amount at the given
// percentage.
func ProcessingFee(amount int64, feePercent float64) float64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(feePercent)).
		Div(hundred).
		InexactFloat64()
}
