package handlers

import (
	"math"
	"strconv"
	"strings"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/services/eligibility"
)

// ParseCompareParams reads amount and tenure from query parameters.
func ParseCompareParams(params map[string]string) (int64, int, error) {
	amount, err := requiredInt64(params, "amount")
	if err != nil {
		return 0, 0, err
	}
	tenure, err := requiredInt(params, "tenure")
	if err != nil {
		return 0, 0, err
	}
	return amount, tenure, nil
}

// ParseEligibilityParams reads an eligibility application from query
// parameters. interest_rate and email are optional.
func ParseEligibilityParams(params map[string]string) (eligibility.Application, error) {
	var app eligibility.Application
	var err error

	if app.MonthlyIncome, err = requiredInt64(params, "monthly_income"); err != nil {
		return app, err
	}
	if app.ExistingEMI, err = requiredInt64(params, "existing_emi"); err != nil {
		return app, err
	}
	if app.Age, err = requiredInt(params, "age"); err != nil {
		return app, err
	}

	employment, ok := lookup(params, "employment_type")
	if !ok {
		return app, models.NewInvalidInput("employment_type", "is required")
	}
	app.EmploymentType = models.NormalizeEmploymentType(employment)

	if app.LoanAmount, err = requiredInt64(params, "loan_amount"); err != nil {
		return app, err
	}
	if app.TenureMonths, err = requiredInt(params, "tenure_months"); err != nil {
		return app, err
	}

	if raw, ok := lookup(params, "interest_rate"); ok {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return app, models.NewInvalidInput("interest_rate", "must be a number")
		}
		app.InterestRate = rate
		app.RateProvided = true
	}

	app.Email, _ = lookup(params, "email")
	return app, nil
}

func lookup(params map[string]string, name string) (string, bool) {
	raw := strings.TrimSpace(params[name])
	return raw, raw != ""
}

func requiredInt64(params map[string]string, name string) (int64, error) {
	raw, ok := lookup(params, name)
	if !ok {
		return 0, models.NewInvalidInput(name, "is required")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, models.NewInvalidInput(name, "must be an integer")
	}
	return v, nil
}

func requiredInt(params map[string]string, name string) (int, error) {
	raw, ok := lookup(params, name)
	if !ok {
		return 0, models.NewInvalidInput(name, "is required")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewInvalidInput(name, "must be an integer")
	}
	return v, nil
}
