package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loan-comparison-engine/internal/models"
	"loan-comparison-engine/internal/utils"
)

// catalogWriter persists imported products.
type catalogWriter interface {
	BulkUpsert(ctx context.Context, products []*models.LoanProductCreate) (*models.BulkInsertResult, error)
}

// catalogRemover looks up and removes single products.
type catalogRemover interface {
	GetByBank(ctx context.Context, bank string) (*models.LoanProduct, error)
	Delete(ctx context.Context, bank string) (bool, error)
}

// cacheInvalidator drops cached comparisons.
type cacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the loan_products table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.DB.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace the catalog with the default banks",
		Long: `Replace every product in the catalog with the four default banks:

  National Bank   10.5%   fee 1%
  Trust Finance   11.0%   fee 0.5%
  People's Bank   11.5%   fee 0%
  Urban Credit    12.0%   fee 0.75%`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			seeds := models.SeedProducts()
			if err := a.Products.ReplaceAll(cmd.Context(), seeds); err != nil {
				return err
			}
			invalidate(cmd.Context(), a.Comparison)

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products\n", len(seeds))
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import products from a CSV file",
		Long: `Import products from a CSV file on disk or in the catalog bucket.

The file needs bank and interest_rate columns; processing_fee_percent is
optional. Existing banks are updated in place. Invalid rows are reported
and skipped.

Examples:
  loanctl import --file rates.csv
  loanctl import --s3-key uploads/2024/01/15/rates.csv`,
		Args: cobra.NoArgs,
		RunE: runImport,
	}

	cmd.Flags().String("file", "", "path to a local CSV file")
	cmd.Flags().String("s3-key", "", "object key in the catalog bucket")
	cmd.MarkFlagsMutuallyExclusive("file", "s3-key")
	cmd.MarkFlagsOneRequired("file", "s3-key")

	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		products  []*models.LoanProductCreate
		rowErrors []error
	)

	if path, _ := cmd.Flags().GetString("file"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		products, rowErrors = utils.NewCSVParser().ParseProducts(string(content))
	} else {
		key, _ := cmd.Flags().GetString("s3-key")
		catalog, err := a.Catalog(ctx)
		if err != nil {
			return err
		}
		imported, err := catalog.ImportCatalog(ctx, key)
		if err != nil {
			return err
		}
		products, rowErrors = imported.Products, imported.Errors
	}

	return importProducts(ctx, cmd.OutOrStdout(), a.Products, a.Comparison, products, rowErrors)
}

// importProducts upserts parsed products and reports per-row errors.
func importProducts(ctx context.Context, out io.Writer, store catalogWriter, cache cacheInvalidator, products []*models.LoanProductCreate, rowErrors []error) error {
	for _, rowErr := range rowErrors {
		fmt.Fprintf(out, "skipped: %v\n", rowErr)
	}

	if len(products) == 0 {
		return errors.New("no valid products to import")
	}

	result, err := store.BulkUpsert(ctx, products)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(out, "rejected: %s\n", msg)
	}

	if result.InsertedCount > 0 {
		invalidate(ctx, cache)
	}

	fmt.Fprintf(out, "Imported %d products, %d failed\n", result.InsertedCount, result.FailedCount+len(rowErrors))
	return nil
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as CSV to the catalog bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			key, _ := cmd.Flags().GetString("s3-key")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			products, err := a.Products.ListAll(ctx)
			if err != nil {
				return err
			}

			catalog, err := a.Catalog(ctx)
			if err != nil {
				return err
			}
			if err := catalog.ExportCatalog(ctx, key, products); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to s3://%s/%s\n", len(products), catalog.Bucket(), key)
			return nil
		},
	}

	cmd.Flags().String("s3-key", "", "object key to write")
	_ = cmd.MarkFlagRequired("s3-key")

	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			products, err := a.Products.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			return writeProducts(cmd.OutOrStdout(), products)
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <bank>",
		Short: "Remove a bank from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return deleteProduct(cmd.Context(), cmd.OutOrStdout(), a.Products, a.Comparison, args[0])
		},
	}
}

// deleteProduct removes one bank and prints the row that was removed.
func deleteProduct(ctx context.Context, out io.Writer, store catalogRemover, cache cacheInvalidator, bank string) error {
	product, err := store.GetByBank(ctx, bank)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("bank %q not found", bank)
	}

	deleted, err := store.Delete(ctx, bank)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("bank %q not found", bank)
	}
	invalidate(ctx, cache)

	fmt.Fprintln(out, "Deleted:")
	return writeProducts(out, []*models.LoanProduct{product})
}

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Rank the catalog for a loan amount and tenure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, _ := cmd.Flags().GetInt64("amount")
			tenure, _ := cmd.Flags().GetInt("tenure")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Comparison.Compare(cmd.Context(), amount, tenure)
			if err != nil {
				return err
			}
			return writeComparison(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Int64("amount", 0, "loan principal")
	cmd.Flags().Int("tenure", 0, "tenure in months")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("tenure")

	return cmd
}

func invalidate(ctx context.Context, cache cacheInvalidator) {
	if err := cache.InvalidateCache(ctx); err != nil {
		utils.GetLogger().Warn("Failed to invalidate comparison cache", zap.Error(err))
	}
}

func writeProducts(out io.Writer, products []*models.LoanProduct) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBANK\tRATE %\tFEE %")
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Bank, formatPercent(p.InterestRate), formatPercent(p.ProcessingFeePercent))
	}
	return w.Flush()
}

func writeComparison(out io.Writer, resp *models.ComparisonResponse) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BANK\tRATE %\tEMI\tINTEREST\tFEE\tTOTAL")
	for _, c := range resp.Comparisons {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%.2f\n", c.Bank, formatPercent(c.InterestRate), c.EMI, c.TotalInterest, c.ProcessingFee, c.TotalCost)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if resp.BestOption != nil {
		_, err := fmt.Fprintf(out, "\nBest option: %s\n", *resp.BestOption)
		return err
	}
	_, err := fmt.Fprintln(out, "\nNo products in catalog")
	return err
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
