// Package models defines the data structures for the loan comparison engine.
package models

// ComparisonResult is the cost breakdown of one loan product for a
// requested amount and tenure.
type ComparisonResult struct {
	Bank          string  `json:"bank"`
	InterestRate  float64 `json:"interest_rate"`
	EMI           int64   `json:"emi"`
	TotalInterest int64   `json:"total_interest"`
	ProcessingFee float64 `json:"processing_fee"`
	TotalCost     float64 `json:"total_cost"`
}

// ComparisonResponse wraps ranked comparison results for API consumers.
// BestOption is nil when the catalog is empty.
type ComparisonResponse struct {
	BestOption  *string            `json:"best_option"`
	Comparisons []ComparisonResult `json:"comparisons"`
}

// NewComparisonResponse builds the response from results already sorted by
// total cost.
func NewComparisonResponse(results []ComparisonResult) *ComparisonResponse {
	if results == nil {
		results = []ComparisonResult{}
	}
	resp := &ComparisonResponse{Comparisons: results}
	if len(results) > 0 {
		best := results[0].Bank
		resp.BestOption = &best
	}
	return resp
}
