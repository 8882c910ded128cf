package comparison_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/services/cache"
	"loan-comparison-engine/internal/services/comparison"
)

// seedCatalog returns the default catalog as stored products.
func seedCatalog() []*models.LoanProduct {
	var products []*models.LoanProduct
	for i, p := range models.SeedProducts() {
		products = append(products, &models.LoanProduct{
			ID:                   int64(i + 1),
			Bank:                 p.Bank,
			InterestRate:         p.InterestRate,
			ProcessingFeePercent: p.ProcessingFeePercent,
		})
	}
	return products
}

type stubCatalog struct {
	products []*models.LoanProduct
	err      error
	calls    int
}

func (s *stubCatalog) ListAll(_ context.Context) ([]*models.LoanProduct, error) {
	s.calls++
	return s.products, s.err
}

func TestCompareLoans_SeedCatalog(t *testing.T) {
	results, err := comparison.CompareLoans(seedCatalog(), 100000, 36)
	require.NoError(t, err)
	require.Len(t, results, 4)

	banks := make([]string, len(results))
	for i, r := range results {
		banks[i] = r.Bank
	}
	assert.Equal(t, []string{"National Bank", "Trust Finance", "People's Bank", "Urban Credit"}, banks)

	best := results[0]
	assert.Equal(t, 10.5, best.InterestRate)
	assert.Equal(t, int64(3250), best.EMI)
	assert.Equal(t, int64(3250*36-100000), best.TotalInterest)
	assert.Equal(t, 1000.0, best.ProcessingFee)
	assert.Equal(t, 118000.0, best.TotalCost)

	urban := results[3]
	assert.Equal(t, int64(3321), urban.EMI)
	assert.Equal(t, 750.0, urban.ProcessingFee)
	assert.Equal(t, 120306.0, urban.TotalCost)
}

func TestCompareLoans_SortedAndSameLength(t *testing.T) {
	products := []*models.LoanProduct{
		{Bank: "C", InterestRate: 14.0, ProcessingFeePercent: 2},
		{Bank: "A", InterestRate: 9.0, ProcessingFeePercent: 3},
		{Bank: "B", InterestRate: 12.5, ProcessingFeePercent: 0},
		{Bank: "D", InterestRate: 9.5, ProcessingFeePercent: 0.25},
	}

	for _, tenure := range []int{6, 12, 60, 240} {
		results, err := comparison.CompareLoans(products, 750000, tenure)
		require.NoError(t, err)
		assert.Len(t, results, len(products))
		assert.True(t, sort.SliceIsSorted(results, func(i, j int) bool {
			return results[i].TotalCost < results[j].TotalCost
		}), "tenure %d not sorted", tenure)
	}
}

func TestCompareLoans_StableOnTies(t *testing.T) {
	products := []*models.LoanProduct{
		{Bank: "Second", InterestRate: 11.0, ProcessingFeePercent: 1},
		{Bank: "Cheap", InterestRate: 8.0, ProcessingFeePercent: 0},
		{Bank: "First", InterestRate: 11.0, ProcessingFeePercent: 1},
		{Bank: "Third", InterestRate: 11.0, ProcessingFeePercent: 1},
	}

	results, err := comparison.CompareLoans(products, 200000, 24)
	require.NoError(t, err)

	banks := []string{results[0].Bank, results[1].Bank, results[2].Bank, results[3].Bank}
	assert.Equal(t, []string{"Cheap", "Second", "First", "Third"}, banks)
}

func TestCompareLoans_EmptyCatalog(t *testing.T) {
	results, err := comparison.CompareLoans(nil, 100000, 12)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	results, err = comparison.CompareLoans([]*models.LoanProduct{}, 100000, 12)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCompareLoans_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		tenure int
	}{
		{"zero amount", 0, 12},
		{"negative amount", -5000, 12},
		{"zero tenure", 100000, 0},
		{"negative tenure", 100000, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := comparison.CompareLoans(seedCatalog(), tt.amount, tt.tenure)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
			assert.Nil(t, results)
		})
	}
}

func TestCompareLoans_BadProductFailsWhole(t *testing.T) {
	products := append(seedCatalog(), &models.LoanProduct{Bank: "Broken", InterestRate: -2})

	results, err := comparison.CompareLoans(products, 100000, 12)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Broken")
	assert.Nil(t, results)
}

func TestCompareLoans_ZeroRateProduct(t *testing.T) {
	products := []*models.LoanProduct{{Bank: "Promo", InterestRate: 0, ProcessingFeePercent: 2}}

	results, err := comparison.CompareLoans(products, 120000, 12)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(10000), results[0].EMI)
	assert.Equal(t, int64(0), results[0].TotalInterest)
	assert.Equal(t, 2400.0, results[0].ProcessingFee)
	assert.Equal(t, 122400.0, results[0].TotalCost)
}

func TestProcessingFee(t *testing.T) {
	assert.Equal(t, 500.0, comparison.ProcessingFee(100000, 0.5))
	assert.Equal(t, 0.0, comparison.ProcessingFee(100000, 0))
	assert.Equal(t, 2.1, comparison.ProcessingFee(210, 1))
	assert.Equal(t, 1875.0, comparison.ProcessingFee(250000, 0.75))
}

func TestService_CompareBuildsEnvelope(t *testing.T) {
	catalog := &stubCatalog{products: seedCatalog()}
	svc := comparison.NewService(catalog, comparison.WithLogger(zap.NewNop()))

	resp, err := svc.Compare(context.Background(), 100000, 36)
	require.NoError(t, err)
	require.NotNil(t, resp.BestOption)
	assert.Equal(t, "National Bank", *resp.BestOption)
	assert.Len(t, resp.Comparisons, 4)
}

func TestService_CompareEmptyCatalog(t *testing.T) {
	svc := comparison.NewService(&stubCatalog{}, comparison.WithLogger(zap.NewNop()))

	resp, err := svc.Compare(context.Background(), 100000, 36)
	require.NoError(t, err)
	assert.Nil(t, resp.BestOption)
	assert.NotNil(t, resp.Comparisons)
	assert.Empty(t, resp.Comparisons)
}

func TestService_CompareRejectsBeforeListing(t *testing.T) {
	catalog := &stubCatalog{products: seedCatalog()}
	svc := comparison.NewService(catalog, comparison.WithLogger(zap.NewNop()))

	_, err := svc.Compare(context.Background(), 0, 36)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Equal(t, 0, catalog.calls)
}

func TestService_CompareRepositoryError(t *testing.T) {
	repoErr := errors.New("connection refused")
	svc := comparison.NewService(&stubCatalog{err: repoErr}, comparison.WithLogger(zap.NewNop()))

	_, err := svc.Compare(context.Background(), 100000, 36)
	assert.ErrorIs(t, err, repoErr)
	assert.False(t, models.IsInvalidInput(err))
}

func TestService_CompareUsesCache(t *testing.T) {
	ctx := context.Background()
	catalog := &stubCatalog{products: seedCatalog()}
	mem := cache.NewMemoryCache()
	svc := comparison.NewService(catalog,
		comparison.WithCache(mem, time.Minute),
		comparison.WithLogger(zap.NewNop()),
	)

	first, err := svc.Compare(ctx, 100000, 36)
	require.NoError(t, err)
	second, err := svc.Compare(ctx, 100000, 36)
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mem.Len())

	_, err = svc.Compare(ctx, 100000, 12)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.calls)

	require.NoError(t, svc.InvalidateCache(ctx))
	assert.Equal(t, 0, mem.Len())

	_, err = svc.Compare(ctx, 100000, 36)
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.calls)
}

func TestService_CachedEmptyCatalogKeepsEmptySlice(t *testing.T) {
	ctx := context.Background()
	svc := comparison.NewService(&stubCatalog{},
		comparison.WithCache(cache.NewMemoryCache(), time.Minute),
		comparison.WithLogger(zap.NewNop()),
	)

	_, err := svc.Compare(ctx, 5000, 6)
	require.NoError(t, err)
	resp, err := svc.Compare(ctx, 5000, 6)
	require.NoError(t, err)
	assert.Nil(t, resp.BestOption)
	assert.NotNil(t, resp.Comparisons)
}

func TestService_InvalidateWithoutCache(t *testing.T) {
	svc := comparison.NewService(&stubCatalog{}, comparison.WithLogger(zap.NewNop()))
	assert.NoError(t, svc.InvalidateCache(context.Background()))
}
