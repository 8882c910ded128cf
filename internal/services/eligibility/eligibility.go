// Package eligibility evaluates loan applications against the underwriting
// rules.
package eligibility

import (
	"math"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/services/emi"
)

// Underwriting limits.
const (
	MinAge              = 21
	RetirementAge       = 60
	IncomeMultiplier    = 60
	MaxFOIR             = 0.40
	foirReportPrecision = 2
)

// Rule violation messages, in evaluation order.
const (
	ReasonUnsupportedEmployment = "Unsupported employment type"
	ReasonUnderage              = "Applicant must be at least 21 years old"
	ReasonPastRetirement        = "Loan tenure exceeds retirement age"
	ReasonAmountOverLimit       = "Requested loan amount exceeds eligible limit"
	ReasonFOIRExceeded          = "EMI exceeds 40% of monthly income"
)

// CheckEligibility runs every underwriting rule against the request. Rules
// do not short-circuit: each violated rule contributes one reason, in a
// fixed order. Inputs that would make the evaluation meaningless are
// rejected with an invalid input error before any rule runs.
func CheckEligibility(req models.EligibilityRequest) (*models.EligibilityVerdict, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	newEMI, err := emi.Calculate(req.LoanAmount, req.InterestRate, req.TenureMonths)
	if err != nil {
		return nil, err
	}

	reasons := []string{}

	if !req.EmploymentType.IsValid() {
		reasons = append(reasons, ReasonUnsupportedEmployment)
	}

	if req.Age < MinAge {
		reasons = append(reasons, ReasonUnderage)
	}

	tenureYears := float64(req.TenureMonths) / emi.MonthsPerYear
	if float64(req.Age)+tenureYears > RetirementAge {
		reasons = append(reasons, ReasonPastRetirement)
	}

	maxLoan := req.MonthlyIncome * IncomeMultiplier
	if req.LoanAmount > maxLoan {
		reasons = append(reasons, ReasonAmountOverLimit)
	}

	foir := (float64(req.ExistingEMI) + float64(newEMI)) / float64(req.MonthlyIncome)
	if foir > MaxFOIR {
		reasons = append(reasons, ReasonFOIRExceeded)
	}

	return &models.EligibilityVerdict{
		Eligible:        len(reasons) == 0,
		MonthlyEMI:      newEMI,
		FOIR:            emi.RoundRatio(foir, foirReportPrecision),
		MaxEligibleLoan: maxLoan,
		Reasons:         reasons,
	}, nil
}

func validate(req models.EligibilityRequest) error {
	switch {
	case req.MonthlyIncome <= 0:
		return models.NewInvalidInput("monthly_income", "must be greater than zero")
	case req.MonthlyIncome > math.MaxInt64/IncomeMultiplier:
		return models.NewInvalidInput("monthly_income", "is too large")
	case req.ExistingEMI < 0:
		return models.NewInvalidInput("existing_emi", "cannot be negative")
	case req.Age <= 0:
		return models.NewInvalidInput("age", "must be greater than zero")
	case req.LoanAmount <= 0:
		return models.NewInvalidInput("loan_amount", "must be greater than zero")
	case req.TenureMonths <= 0:
		return models.NewInvalidInput("tenure_months", "must be greater than zero")
	case req.InterestRate < 0:
		return models.NewInvalidInput("interest_rate", "cannot be negative")
	}
	return nil
}
