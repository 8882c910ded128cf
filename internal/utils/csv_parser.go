// Package utils provides utility functions for the loan comparison engine.
package utils

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"loan-comparison-engine/internal/models"
)

// CSVParser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
	ErrDuplicateBank  = errors.New("duplicate bank")
)

// RequiredColumns defines the columns that must be present in a catalog CSV.
var RequiredColumns = []string{
	"bank",
	"interest_rate",
}

// OptionalColumns defaults to zero when absent.
var OptionalColumns = []string{
	"processing_fee_percent",
}

// ColumnAliases maps alternative column names to standard names.
var ColumnAliases = map[string]string{
	// bank aliases
	"bank_name":   "bank",
	"bankname":    "bank",
	"lender":      "bank",
	"provider":    "bank",
	"institution": "bank",

	// interest_rate aliases
	"rate":          "interest_rate",
	"interest":      "interest_rate",
	"interestrate":  "interest_rate",
	"interest rate": "interest_rate",
	"annual_rate":   "interest_rate",
	"roi":           "interest_rate",

	// processing_fee_percent aliases
	"processing_fee":     "processing_fee_percent",
	"processingfee":      "processing_fee_percent",
	"processing fee":     "processing_fee_percent",
	"processing fee %":   "processing_fee_percent",
	"processing_fee_pct": "processing_fee_percent",
	"fee":                "processing_fee_percent",
	"fee_percent":        "processing_fee_percent",
}

// CSVParser handles parsing of loan catalog CSV files.
type CSVParser struct {
	columnMapping map[string]int
}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser {
	return &CSVParser{
		columnMapping: make(map[string]int),
	}
}

// ParseProducts parses CSV content into validated products. Row level
// problems are collected with their line numbers; valid rows are still
// returned.
func (p *CSVParser) ParseProducts(content string) ([]*models.LoanProductCreate, []error) {
	if strings.TrimSpace(content) == "" {
		return nil, []error{ErrEmptyCSV}
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}

	if err := p.buildColumnMapping(header); err != nil {
		return nil, []error{err}
	}

	var products []*models.LoanProductCreate
	var parseErrors []error
	seen := make(map[string]int)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.ParseError already carries the line number
			parseErrors = append(parseErrors, err)
			continue
		}
		if isBlank(record) {
			continue
		}
		lineNum, _ := reader.FieldPos(0)

		row, err := p.parseRow(record)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		product, err := row.ToLoanProductCreate()
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		key := strings.ToLower(product.Bank)
		if first, dup := seen[key]; dup {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w %q (first seen on line %d)", lineNum, ErrDuplicateBank, product.Bank, first))
			continue
		}
		seen[key] = lineNum

		products = append(products, product)
	}

	if len(products) == 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return products, parseErrors
}

// buildColumnMapping creates a mapping of standard column names to their indices.
func (p *CSVParser) buildColumnMapping(header []string) error {
	p.columnMapping = make(map[string]int)

	for i, col := range header {
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if alias, ok := ColumnAliases[normalized]; ok {
			normalized = alias
		}
		if _, exists := p.columnMapping[normalized]; !exists {
			p.columnMapping[normalized] = i
		}
	}

	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := p.columnMapping[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

// parseRow parses a single CSV row.
func (p *CSVParser) parseRow(record []string) (*models.CSVProductRow, error) {
	getValue := func(column string) (string, bool) {
		idx, ok := p.columnMapping[column]
		if !ok || idx >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[idx]), true
	}

	bank, _ := getValue("bank")

	rateStr, _ := getValue("interest_rate")
	rate, err := parsePercent(rateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid interest_rate: %w", err)
	}

	var fee float64
	if feeStr, ok := getValue("processing_fee_percent"); ok && feeStr != "" {
		fee, err = parsePercent(feeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid processing_fee_percent: %w", err)
		}
	}

	return &models.CSVProductRow{
		Bank:                 bank,
		InterestRate:         rate,
		ProcessingFeePercent: fee,
	}, nil
}

// parsePercent parses values like "10.5", "10.5%" or " 1,000.25 ".
func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)

	return strconv.ParseFloat(s, 64)
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// WriteProductsCSV renders products in the canonical import format.
func WriteProductsCSV(products []*models.LoanProduct) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append(append([]string{}, RequiredColumns...), OptionalColumns...)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, p := range products {
		record := []string{
			p.Bank,
			strconv.FormatFloat(p.InterestRate, 'f', -1, 64),
			strconv.FormatFloat(p.ProcessingFeePercent, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
