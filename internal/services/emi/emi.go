// Package emi computes equated monthly installments for amortized loans.
//
// The installment for principal P at annual nominal rate R (percent) over n
// months is
//
//	r   = R / 12 / 100
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// A zero rate degenerates to an even split, P / n.
//
// All results are rounded to the nearest integer with round-half-to-even,
// and the same mode is used wherever this module rounds money or ratios.
package emi

import (
	"math"

	"loan-comparison-engine/internal/models"
)

// MonthsPerYear is the number of installments in a year.
const MonthsPerYear = 12

// Calculate returns the monthly installment for the given loan, rounded
// half-to-even to whole currency units. It fails with an invalid input
// error when principal or months is not positive or the rate is negative.
func Calculate(principal int64, annualRate float64, months int) (int64, error) {
	if principal <= 0 {
		return 0, models.NewInvalidInput("principal", "must be greater than zero")
	}
	if months <= 0 {
		return 0, models.NewInvalidInput("months", "must be greater than zero")
	}
	if annualRate < 0 || math.IsNaN(annualRate) || math.IsInf(annualRate, 0) {
		return 0, models.NewInvalidInput("annual_rate", "must be a non-negative finite number")
	}

	p := float64(principal)
	monthlyRate := annualRate / MonthsPerYear / 100

	if monthlyRate == 0 {
		installment := math.RoundToEven(p / float64(months))
		if installment >= math.MaxInt64 {
			return 0, models.NewInvalidInput("principal", "is too large to amortize")
		}
		return int64(installment), nil
	}

	factor := math.Pow(1+monthlyRate, float64(months))
	installment := math.RoundToEven(p * monthlyRate * factor / (factor - 1))

	if math.IsNaN(installment) || math.IsInf(installment, 0) || installment >= math.MaxInt64 {
		return 0, models.NewInvalidInput("annual_rate", "is too large to amortize")
	}

	return int64(installment), nil
}

// RoundRatio rounds a ratio half-to-even to the given number of decimal places.
func RoundRatio(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(value*scale) / scale
}
