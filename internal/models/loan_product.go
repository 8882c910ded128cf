// Package models defines the data structures for the loan comparison engine.
package models

import (
	"math"
	"strings"
	"time"
)

// LoanProduct represents a loan offer from a bank in the catalog.
type LoanProduct struct {
	ID                   int64     `json:"id" db:"id"`
	Bank                 string    `json:"bank" db:"bank"`
	InterestRate         float64   `json:"interest_rate" db:"interest_rate"`
	ProcessingFeePercent float64   `json:"processing_fee_percent" db:"processing_fee_percent"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// LoanProductCreate represents data needed to create or update a loan product.
type LoanProductCreate struct {
	Bank                 string  `json:"bank"`
	InterestRate         float64 `json:"interest_rate"`
	ProcessingFeePercent float64 `json:"processing_fee_percent"`
}

// Validate checks the catalog invariants of a product.
func (p *LoanProductCreate) Validate() error {
	if strings.TrimSpace(p.Bank) == "" {
		return ErrEmptyBank
	}
	if !(p.InterestRate > 0) || math.IsInf(p.InterestRate, 0) {
		return ErrInvalidRate
	}
	if p.ProcessingFeePercent < 0 || math.IsNaN(p.ProcessingFeePercent) || math.IsInf(p.ProcessingFeePercent, 0) {
		return ErrInvalidFeeRate
	}
	return nil
}

// SeedProducts returns the default catalog used to bootstrap a new database.
func SeedProducts() []LoanProductCreate {
	return []LoanProductCreate{
		{Bank: "National Bank", InterestRate: 10.5, ProcessingFeePercent: 1},
		{Bank: "Trust Finance", InterestRate: 11.0, ProcessingFeePercent: 0.5},
		{Bank: "People's Bank", InterestRate: 11.5, ProcessingFeePercent: 0},
		{Bank: "Urban Credit", InterestRate: 12.0, ProcessingFeePercent: 0.75},
	}
}

// CSVProductRow represents a row from an uploaded catalog CSV file.
type CSVProductRow struct {
	Bank                 string
	InterestRate         float64
	ProcessingFeePercent float64
}

// ToLoanProductCreate converts a CSV row to a validated LoanProductCreate.
func (r *CSVProductRow) ToLoanProductCreate() (*LoanProductCreate, error) {
	product := &LoanProductCreate{
		Bank:                 strings.TrimSpace(r.Bank),
		InterestRate:         r.InterestRate,
		ProcessingFeePercent: r.ProcessingFeePercent,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

// BulkInsertResult contains the results of a bulk upsert operation.
type BulkInsertResult struct {
	InsertedCount int      `json:"inserted_count"`
	FailedCount   int      `json:"failed_count"`
	Errors        []string `json:"errors,omitempty"`
}
