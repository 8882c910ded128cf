// Package models defines the data structures for the loan comparison engine.
package models

// EmploymentType represents the employment category of an applicant.
type EmploymentType string

const (
	EmploymentTypeSalaried     EmploymentType = "salaried"
	EmploymentTypeSelfEmployed EmploymentType = "self-employed"
)

// ValidEmploymentTypes returns all supported employment type values.
func ValidEmploymentTypes() []EmploymentType {
	return []EmploymentType{
		EmploymentTypeSalaried,
		EmploymentTypeSelfEmployed,
	}
}

// IsValid checks if the employment type is supported.
func (e EmploymentType) IsValid() bool {
	for _, valid := range ValidEmploymentTypes() {
		if e == valid {
			return true
		}
	}
	return false
}

// EligibilityRequest holds the applicant profile and requested loan.
type EligibilityRequest struct {
	MonthlyIncome  int64          `json:"monthly_income"`
	ExistingEMI    int64          `json:"existing_emi"`
	Age            int            `json:"age"`
	EmploymentType EmploymentType `json:"employment_type"`
	LoanAmount     int64          `json:"loan_amount"`
	TenureMonths   int            `json:"tenure_months"`
	InterestRate   float64        `json:"interest_rate"`
}

// EligibilityVerdict is the outcome of evaluating the underwriting rules.
// Reasons is empty iff Eligible is true.
type EligibilityVerdict struct {
	Eligible        bool     `json:"eligible"`
	MonthlyEMI      int64    `json:"monthly_emi"`
	FOIR            float64  `json:"foir"`
	MaxEligibleLoan int64    `json:"max_eligible_loan"`
	Reasons         []string `json:"reasons"`
}

// EligibilityResponse is the API view of a verdict, including the rate the
// loan was evaluated at.
type EligibilityResponse struct {
	EligibilityVerdict
	InterestRate float64 `json:"interest_rate"`
}
