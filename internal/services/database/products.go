// Package database provides database operations for the loan comparison engine.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"loan-comparison-engine/internal/models"
)

const productColumns = `id, bank, interest_rate, processing_fee_percent, created_at, updated_at`

const upsertProductSQL = `
	INSERT INTO loan_products (bank, interest_rate, processing_fee_percent, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $4)
	ON CONFLICT (bank) DO UPDATE SET
		interest_rate = EXCLUDED.interest_rate,
		processing_fee_percent = EXCLUDED.processing_fee_percent,
		updated_at = EXCLUDED.updated_at
	RETURNING id`

// ProductRepository handles loan product database operations.
type ProductRepository struct {
	db *DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListAll retrieves every loan product in catalog order.
func (r *ProductRepository) ListAll(ctx context.Context) ([]*models.LoanProduct, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM loan_products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query loan products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.LoanProduct, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loan products: %w", err)
	}

	return products, nil
}

// FindLowestRate returns the product with the lowest interest rate. Ties go
// to the earliest inserted product. It returns models.ErrNoProducts when the
// catalog is empty.
func (r *ProductRepository) FindLowestRate(ctx context.Context) (*models.LoanProduct, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM loan_products ORDER BY interest_rate ASC, id ASC LIMIT 1`)

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNoProducts
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lowest rate product: %w", err)
	}

	return product, nil
}

// GetByBank retrieves a loan product by bank name. Returns nil when absent.
func (r *ProductRepository) GetByBank(ctx context.Context, bank string) (*models.LoanProduct, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM loan_products WHERE bank = $1`, bank)

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan product: %w", err)
	}

	return product, nil
}

// Upsert inserts a product or updates the existing product of the same bank.
func (r *ProductRepository) Upsert(ctx context.Context, product *models.LoanProductCreate) (int64, error) {
	if err := product.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.db.QueryRowContext(ctx, upsertProductSQL,
		product.Bank,
		product.InterestRate,
		product.ProcessingFeePercent,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert loan product: %w", err)
	}

	return id, nil
}

// BulkUpsert writes products in one transaction. Invalid products are
// skipped and reported; a database failure aborts the whole batch.
func (r *ProductRepository) BulkUpsert(ctx context.Context, products []*models.LoanProductCreate) (*models.BulkInsertResult, error) {
	result := &models.BulkInsertResult{}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		for _, product := range products {
			if err := product.Validate(); err != nil {
				result.FailedCount++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", product.Bank, err))
				continue
			}
			if _, err := tx.Exec(ctx, upsertProductSQL,
				product.Bank, product.InterestRate, product.ProcessingFeePercent, now); err != nil {
				return fmt.Errorf("failed to upsert %q: %w", product.Bank, err)
			}
			result.InsertedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ReplaceAll deletes the catalog and inserts products in one transaction.
func (r *ProductRepository) ReplaceAll(ctx context.Context, products []models.LoanProductCreate) error {
	for i := range products {
		if err := products[i].Validate(); err != nil {
			return fmt.Errorf("product %q: %w", products[i].Bank, err)
		}
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM loan_products`); err != nil {
			return fmt.Errorf("failed to clear loan products: %w", err)
		}

		now := time.Now().UTC()
		for _, p := range products {
			if _, err := tx.Exec(ctx, upsertProductSQL, p.Bank, p.InterestRate, p.ProcessingFeePercent, now); err != nil {
				return fmt.Errorf("failed to insert %q: %w", p.Bank, err)
			}
		}
		return nil
	})
}

// Delete removes the product of the given bank.
func (r *ProductRepository) Delete(ctx context.Context, bank string) (bool, error) {
	affected, err := r.db.ExecContext(ctx, `DELETE FROM loan_products WHERE bank = $1`, bank)
	if err != nil {
		return false, fmt.Errorf("failed to delete loan product: %w", err)
	}
	return affected > 0, nil
}

// Count returns the number of products in the catalog.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loan_products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count loan products: %w", err)
	}
	return count, nil
}

// scanProduct scans a single row into a LoanProduct. pgx.Rows satisfies
// pgx.Row, so it serves both query paths.
func scanProduct(row pgx.Row) (*models.LoanProduct, error) {
	var product models.LoanProduct

	err := row.Scan(
		&product.ID,
		&product.Bank,
		&product.InterestRate,
		&product.ProcessingFeePercent,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &product, nil
}
